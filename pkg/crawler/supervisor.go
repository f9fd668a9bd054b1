package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"hotcrawl/pkg/config"
	errs "hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/retry"
)

// ProfileCollector is the collection entry point the supervisor wraps
type ProfileCollector interface {
	Collect(username string) ([]string, error)
}

// Supervisor makes one profile's collection resilient: it serializes access
// to the shared browser session, bounds each attempt with a wall-clock
// timeout, and retries transient failures with attempt-scaled jitter.
type Supervisor struct {
	collector ProfileCollector
	cfg       config.CrawlConfig
	sessionMu *sync.Mutex
	log       logger.Logger
}

// NewSupervisor creates a Supervisor. All supervisors of one run share the
// same session mutex.
func NewSupervisor(collector ProfileCollector, cfg config.CrawlConfig, sessionMu *sync.Mutex, log logger.Logger) *Supervisor {
	return &Supervisor{
		collector: collector,
		cfg:       cfg,
		sessionMu: sessionMu,
		log:       log.WithField("component", "supervisor"),
	}
}

// CrawlProfile collects one profile's URLs with retries. A benign empty
// window returns (nil, nil); fatal unavailability and exhausted retries
// return an error.
func (s *Supervisor) CrawlProfile(username string) ([]string, error) {
	log := s.log.WithField("username", username)

	var urls []string
	err := retry.Do(func() error {
		var attemptErr error
		urls, attemptErr = s.runOnce(username)
		return attemptErr
	}, &retry.Config{
		MaxAttempts: s.cfg.MaxRetries,
		Backoff: &retry.ScaledUniformBackoff{
			Min: s.cfg.RetryBaseDelay,
			Max: s.cfg.RetryMaxDelay,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: context.Background(),
		Logger:  log,
	})

	if err != nil {
		if errors.Is(err, errs.ErrNoPosts) {
			return nil, nil
		}
		return nil, err
	}
	return urls, nil
}

type attemptResult struct {
	urls []string
	err  error
}

// runOnce executes a single collection attempt under the session mutex with
// a hard timeout. The timer starts only after the mutex is held, so time
// spent queued behind another profile does not count against the budget.
//
// On timeout the attempt is abandoned, not killed: the worker goroutine keeps
// the mutex until its in-flight command finishes, then releases it and drops
// its result into the buffered channel where it is never read.
func (s *Supervisor) runOnce(username string) ([]string, error) {
	resultCh := make(chan attemptResult, 1)
	acquired := make(chan struct{})

	go func() {
		s.sessionMu.Lock()
		defer s.sessionMu.Unlock()
		close(acquired)

		urls, err := s.collector.Collect(username)
		resultCh <- attemptResult{urls: urls, err: err}
	}()

	<-acquired
	start := time.Now()

	timer := time.NewTimer(s.cfg.UserTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.urls, res.err
	case <-timer.C:
		s.log.WarnWithFields("collection attempt abandoned", map[string]interface{}{
			"username": username,
			"elapsed":  time.Since(start),
		})
		return nil, errs.New(errs.ErrorTypeTimeout,
			"collection for @%s timed out after %s", username, s.cfg.UserTimeout)
	}
}
