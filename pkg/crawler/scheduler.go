package crawler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"hotcrawl/pkg/config"
	errs "hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/report"
)

// ProfileSupervisor crawls one profile end to end
type ProfileSupervisor interface {
	CrawlProfile(username string) ([]string, error)
}

// Result aggregates one run's collected URLs. Users preserves the load
// order; URLs maps each user to their discovery-ordered post URLs.
type Result struct {
	Users    []string
	URLs     map[string][]string
	Started  time.Time
	TextPath string
}

// TotalPosts counts all collected URLs
func (r *Result) TotalPosts() int {
	total := 0
	for _, urls := range r.URLs {
		total += len(urls)
	}
	return total
}

// Scheduler fans the supervisor out over the profile list with a bounded
// worker pool and persists each profile's URLs the moment it completes, so
// partial progress survives interruption.
type Scheduler struct {
	supervisor ProfileSupervisor
	writer     *report.Writer
	cfg        config.CrawlConfig
	log        logger.Logger

	// ShowProgress renders a console progress bar during the run
	ShowProgress bool
}

// NewScheduler creates a Scheduler
func NewScheduler(supervisor ProfileSupervisor, writer *report.Writer, cfg config.CrawlConfig, log logger.Logger) *Scheduler {
	return &Scheduler{
		supervisor: supervisor,
		writer:     writer,
		cfg:        cfg,
		log:        log.WithField("component", "scheduler"),
	}
}

// Run crawls all users concurrently and returns the aggregated result.
// Per-profile failures are contained and recorded as empty URL lists; only
// the inability to open the result file is an error. Once fatal
// unavailability is observed, remaining profiles are recorded as empty
// without issuing further browser commands.
func (s *Scheduler) Run(users []string) (*Result, error) {
	started := time.Now()

	text, err := s.writer.CreateText(started, len(users))
	if err != nil {
		return nil, err
	}

	s.log.InfoWithFields("starting crawl", map[string]interface{}{
		"users":   len(users),
		"workers": s.cfg.Workers,
	})

	var bar *progressbar.ProgressBar
	if s.ShowProgress {
		bar = newProgressBar(len(users), "crawling profiles")
	}

	result := &Result{
		Users:    users,
		URLs:     make(map[string][]string, len(users)),
		Started:  started,
		TextPath: text.Path(),
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var unavailable atomic.Bool
	var mu sync.Mutex
	completed := 0

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for username := range jobs {
				urls := s.crawlOne(username, &unavailable)

				mu.Lock()
				completed++
				result.URLs[username] = urls
				if err := text.AppendProfile(username, urls, completed, len(users)); err != nil {
					s.log.WithError(err).Error("failed to persist profile results")
				}
				current := completed
				mu.Unlock()

				if bar != nil {
					_ = bar.Add(1)
				}

				s.log.InfoWithFields("profile done", map[string]interface{}{
					"username":  username,
					"urls":      len(urls),
					"completed": current,
					"total":     len(users),
				})
			}
		}()
	}

	for _, username := range users {
		jobs <- username
	}
	close(jobs)
	wg.Wait()

	if err := text.Finalize(result.TotalPosts()); err != nil {
		s.log.WithError(err).Error("failed to finalize text result")
	}

	return result, nil
}

// crawlOne runs the supervisor for one profile unless the run has already
// turned fatally unavailable
func (s *Scheduler) crawlOne(username string, unavailable *atomic.Bool) []string {
	if unavailable.Load() {
		s.log.WarnWithFields("skipping profile, browser unavailable", map[string]interface{}{
			"username": username,
		})
		return nil
	}

	urls, err := s.supervisor.CrawlProfile(username)
	if err != nil {
		if errs.IsUnavailable(err) {
			unavailable.Store(true)
			s.log.WithError(err).Error("browser unavailable, halting new crawls")
		} else {
			s.log.ErrorWithFields("profile crawl failed", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
		}
		return nil
	}

	return urls
}

func newProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
