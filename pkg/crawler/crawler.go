// Package crawler wires the crawl pipeline together: supervised per-profile
// collection over the shared browser session, bounded fan-out across the
// profile list, and the content-enrichment stage that produces the final
// report.
package crawler

import (
	"fmt"
	"sync"

	"hotcrawl/internal/enricher"
	"hotcrawl/pkg/browser"
	"hotcrawl/pkg/collector"
	"hotcrawl/pkg/config"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/proclock"
	"hotcrawl/pkg/report"
	"hotcrawl/pkg/snowflake"
	"hotcrawl/pkg/twitterapi"
	"hotcrawl/pkg/users"
)

// Crawler is the top-level orchestrator for a run
type Crawler struct {
	cfg *config.Config
	log logger.Logger

	lock       *proclock.Lock
	browser    *browser.Client
	supervisor *Supervisor
	scheduler  *Scheduler
	fetcher    *twitterapi.Client
	writer     *report.Writer
	users      *users.Store
}

// New builds a fully wired Crawler from configuration
func New(cfg *config.Config, log logger.Logger) (*Crawler, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	writer, err := report.NewWriter(cfg.Output.ResultsDir, log)
	if err != nil {
		return nil, err
	}

	client := browser.NewClient(cfg.Browser, log)
	decoder := snowflake.NewDecoder(cfg.Snowflake)
	coll := collector.New(client, cfg.Crawl, decoder, log)

	var sessionMu sync.Mutex
	supervisor := NewSupervisor(coll, cfg.Crawl, &sessionMu, log)
	scheduler := NewScheduler(supervisor, writer, cfg.Crawl, log)
	scheduler.ShowProgress = true

	return &Crawler{
		cfg:        cfg,
		log:        log,
		lock:       proclock.New(cfg.Output.LockFile),
		browser:    client,
		supervisor: supervisor,
		scheduler:  scheduler,
		fetcher:    twitterapi.NewClient(cfg.Fetch, log),
		writer:     writer,
		users:      users.NewStore(cfg.Output.UsersFile, log),
	}, nil
}

// RunAll crawls every profile in the users file, then enriches the collected
// URLs into the markdown report. Per-profile and per-post failures are
// contained; only startup conditions return an error.
func (c *Crawler) RunAll() error {
	held, err := c.lock.Acquire()
	if err != nil {
		return err
	}
	if !held {
		return fmt.Errorf("another crawler instance is already running (lock: %s)", c.lock.Path())
	}
	defer c.lock.Release()

	if err := c.browser.EnsureAvailable(); err != nil {
		return fmt.Errorf("browser pre-flight failed: %w", err)
	}

	profiles, err := c.users.Load()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		c.log.Warn("no users to crawl")
		return nil
	}

	result, err := c.scheduler.Run(profiles)
	if err != nil {
		return err
	}

	if err := c.enrich(result); err != nil {
		c.log.WithError(err).Error("report generation failed")
	}

	c.logSummary(result)
	return nil
}

// RunProfile crawls a single profile and returns its URLs, bypassing the
// scheduler and result files
func (c *Crawler) RunProfile(username string) ([]string, error) {
	held, err := c.lock.Acquire()
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, fmt.Errorf("another crawler instance is already running (lock: %s)", c.lock.Path())
	}
	defer c.lock.Release()

	if err := c.browser.EnsureAvailable(); err != nil {
		return nil, fmt.Errorf("browser pre-flight failed: %w", err)
	}

	return c.supervisor.CrawlProfile(username)
}

// enrich fans the content-fetch pool out over every collected URL and writes
// the markdown report. Placeholder sections go in up front in profile order;
// completions replace them in place, so the document ordering never depends
// on fetch timing.
func (c *Crawler) enrich(result *Result) error {
	doc := report.NewReport(result.Started, len(result.Users), result.TotalPosts())

	var jobs []enricher.FetchJob
	for _, username := range result.Users {
		urls := result.URLs[username]
		if len(urls) == 0 {
			continue
		}

		doc.AddHeading(username, len(urls))
		for i, url := range urls {
			slot := doc.AddPlaceholder(i+1, url)
			jobs = append(jobs, enricher.FetchJob{
				URL:      url,
				Username: username,
				Index:    i + 1,
				Slot:     slot,
			})
		}
	}

	if len(jobs) > 0 {
		c.log.InfoWithFields("fetching post content", map[string]interface{}{
			"posts":   len(jobs),
			"workers": c.cfg.Fetch.Workers,
		})

		pool := enricher.NewWorkerPool(c.cfg.Fetch.Workers, c.fetcher, c.log)
		pool.Start()

		var consumeWg sync.WaitGroup
		consumeWg.Add(1)
		go func() {
			defer consumeWg.Done()
			for res := range pool.Results() {
				if res.Error != nil || res.Markdown == "" {
					doc.ReplaceSection(res.Job.Slot,
						report.UnavailableSection(res.Job.Index, res.Job.URL))
					continue
				}
				doc.ReplaceSection(res.Job.Slot, report.Section(res.Markdown))
			}
		}()

		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				c.log.WithError(err).Error("failed to submit fetch job")
			}
		}
		pool.Stop()
		consumeWg.Wait()
	}

	path := c.writer.MarkdownPath(result.Started)
	if err := doc.WriteFile(path); err != nil {
		return err
	}

	c.log.InfoWithFields("report written", map[string]interface{}{
		"path": path,
	})
	return nil
}

// logSummary prints the per-profile post counts at run completion
func (c *Crawler) logSummary(result *Result) {
	c.log.InfoWithFields("crawl summary", map[string]interface{}{
		"total_users": len(result.Users),
		"total_posts": result.TotalPosts(),
	})
	for _, username := range result.Users {
		c.log.InfoWithFields("profile result", map[string]interface{}{
			"username": username,
			"posts":    len(result.URLs[username]),
		})
	}
}
