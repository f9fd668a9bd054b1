package enricher

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	errs "hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/twitterapi"
)

type mockFetcher struct {
	mu    sync.Mutex
	calls int
	fn    func(url string) (*twitterapi.Post, error)
}

func (m *mockFetcher) FetchPost(url string) (*twitterapi.Post, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(url)
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func goodPost(url string) *twitterapi.Post {
	return &twitterapi.Post{
		URL:    url,
		Source: twitterapi.SourceFxTwitter,
		Tweet: &twitterapi.FxTweet{
			Text:   "content for " + url,
			Author: twitterapi.FxAuthor{Name: "Alice", ScreenName: "alice"},
		},
	}
}

func TestPoolEnrichesAllJobs(t *testing.T) {
	fetcher := &mockFetcher{
		fn: func(url string) (*twitterapi.Post, error) {
			return goodPost(url), nil
		},
	}
	pool := NewWorkerPool(3, fetcher, logger.GetLogger())
	pool.Start()

	const jobs = 10
	results := make(map[int]FetchResult, jobs)

	var consumeWg sync.WaitGroup
	consumeWg.Add(1)
	go func() {
		defer consumeWg.Done()
		for result := range pool.Results() {
			results[result.Job.Slot] = result
		}
	}()

	for i := 0; i < jobs; i++ {
		job := FetchJob{
			URL:      fmt.Sprintf("https://x.com/alice/status/%d", i),
			Username: "alice",
			Index:    i + 1,
			Slot:     i,
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	pool.Stop()
	consumeWg.Wait()

	if len(results) != jobs {
		t.Fatalf("got %d results, want %d", len(results), jobs)
	}
	if fetcher.callCount() != jobs {
		t.Errorf("fetch calls = %d, want %d", fetcher.callCount(), jobs)
	}

	for slot, result := range results {
		if result.Error != nil {
			t.Errorf("slot %d: error = %v", slot, result.Error)
		}
		if !strings.Contains(result.Markdown, "# Post by @alice") {
			t.Errorf("slot %d: markdown not rendered:\n%s", slot, result.Markdown)
		}
		if result.Job.Index != slot+1 {
			t.Errorf("slot %d: job index = %d", slot, result.Job.Index)
		}
	}
}

func TestPoolCarriesFetchErrors(t *testing.T) {
	fetcher := &mockFetcher{
		fn: func(url string) (*twitterapi.Post, error) {
			if strings.HasSuffix(url, "/2") {
				return nil, errs.New(errs.ErrorTypeNotFound, "gone")
			}
			return goodPost(url), nil
		},
	}
	pool := NewWorkerPool(2, fetcher, logger.GetLogger())
	pool.Start()

	var results []FetchResult
	var consumeWg sync.WaitGroup
	consumeWg.Add(1)
	go func() {
		defer consumeWg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	for i := 1; i <= 3; i++ {
		pool.Submit(FetchJob{
			URL:  fmt.Sprintf("https://x.com/alice/status/%d", i),
			Slot: i - 1,
		})
	}

	pool.Stop()
	consumeWg.Wait()

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	failures := 0
	for _, result := range results {
		if result.Error != nil {
			failures++
			if result.Markdown != "" {
				t.Errorf("failed job carries markdown: %q", result.Markdown)
			}
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestPoolSubmitAfterStop(t *testing.T) {
	fetcher := &mockFetcher{
		fn: func(url string) (*twitterapi.Post, error) {
			return goodPost(url), nil
		},
	}
	pool := NewWorkerPool(1, fetcher, logger.GetLogger())
	pool.Start()
	pool.Stop()

	if err := pool.Submit(FetchJob{URL: "https://x.com/alice/status/1"}); err == nil {
		t.Error("Submit() after Stop() should fail")
	}
}
