// Package enricher runs the content-fetch stage: a bounded worker pool that
// turns collected post URLs into rendered markdown sections through the
// read-API client.
package enricher

import (
	"fmt"
	"sync"
	"time"

	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/report"
	"hotcrawl/pkg/twitterapi"
)

// FetchJob represents a single post enrichment task
type FetchJob struct {
	URL      string
	Username string
	// Index is the 1-based post number within the profile's section
	Index int
	// Slot is the report section this job's markdown replaces
	Slot int
}

// FetchResult represents the outcome of an enrichment job
type FetchResult struct {
	Job      FetchJob
	Post     *twitterapi.Post
	Markdown string
	Error    error
	Duration time.Duration
}

// PostFetcher interface for fetching post content
type PostFetcher interface {
	FetchPost(url string) (*twitterapi.Post, error)
}

// WorkerPool manages concurrent content-fetch workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
	client      PostFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a new content-fetch worker pool
func NewWorkerPool(numWorkers int, client PostFetcher, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FetchJob, numWorkers*2),
		resultQueue: make(chan FetchResult, numWorkers),
		done:        make(chan struct{}),
		client:      client,
		logger:      log.WithField("component", "enricher"),
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting fetch worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. Submitted jobs drain before
// the result channel closes.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.closeOnce.Do(func() { close(wp.done) })

	wp.logger.Info("fetch worker pool stopped")
}

// Submit adds a new fetch job to the queue
func (wp *WorkerPool) Submit(job FetchJob) error {
	// Sending on the closed job queue would panic, so check shutdown first
	select {
	case <-wp.done:
		return fmt.Errorf("worker pool is shutting down")
	default:
	}

	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.done:
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming fetch results
func (wp *WorkerPool) Results() <-chan FetchResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.done:
			return
		}
	}
}

// processJob fetches and renders a single post
func (wp *WorkerPool) processJob(job FetchJob, workerID int) FetchResult {
	start := time.Now()
	result := FetchResult{Job: job}

	wp.logger.DebugWithFields("worker fetching post", map[string]interface{}{
		"worker_id": workerID,
		"username":  job.Username,
		"url":       job.URL,
	})

	post, err := wp.client.FetchPost(job.URL)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = fmt.Errorf("fetch failed: %w", err)

		wp.logger.WarnWithFields("worker failed to fetch post", map[string]interface{}{
			"worker_id": workerID,
			"username":  job.Username,
			"url":       job.URL,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}

	result.Post = post
	result.Markdown = report.RenderPost(post)

	wp.logger.DebugWithFields("worker enriched post", map[string]interface{}{
		"worker_id": workerID,
		"username":  job.Username,
		"source":    string(post.Source),
		"duration":  result.Duration,
	})

	return result
}

// QueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
