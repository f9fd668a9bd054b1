// Package collector implements the scroll-and-extract loop that harvests
// post URLs from one profile page within a rolling time window.
package collector

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"hotcrawl/pkg/browser"
	"hotcrawl/pkg/config"
	"hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/snowflake"
	"hotcrawl/pkg/twitterapi"
)

// ControlClient is the slice of the browser client the collector drives
type ControlClient interface {
	Navigate(url string) (string, error)
	Evaluate(script string) (*browser.Reply, error)
	Press(key string) error
}

// contentReadyScript checks whether any post elements have rendered yet
const contentReadyScript = "document.querySelectorAll('article').length > 0"

// extractionScriptTemplate collects in-window post permalinks from the
// rendered feed. It deduplicates within its own pass and returns URLs in
// document order. The window length in milliseconds is substituted in.
const extractionScriptTemplate = `(() => {
    const articles = document.querySelectorAll('article');
    const cutoff = new Date(Date.now() - %d);
    const result = [];

    for (let i = 0; i < articles.length; i++) {
        const article = articles[i];
        const timeElement = article.querySelector('time');
        if (!timeElement) continue;

        const datetime = timeElement.getAttribute('datetime');
        if (!datetime) continue;

        const postDate = new Date(datetime);
        if (postDate < cutoff) continue;

        const links = article.querySelectorAll('a[href*="/status/"]');
        for (let j = 0; j < links.length; j++) {
            const href = links[j].getAttribute('href');
            if (href && href.includes('/status/')) {
                const statusId = href.split('/status/')[1].split('/')[0];
                const fullUrl = 'https://x.com' + href.split('/status/')[0] + '/status/' + statusId;
                if (!result.includes(fullUrl)) {
                    result.push(fullUrl);
                }
                break;
            }
        }
    }

    return result
})()`

// Collector runs the time-window collection state machine for one profile
// at a time. Not safe for concurrent use; callers hold the session mutex.
type Collector struct {
	client  ControlClient
	cfg     config.CrawlConfig
	decoder *snowflake.Decoder
	log     logger.Logger

	// test seams
	sleep   func(time.Duration)
	now     func() time.Time
	uniform func(min, max time.Duration) time.Duration
}

// New creates a Collector
func New(client ControlClient, cfg config.CrawlConfig, decoder *snowflake.Decoder, log logger.Logger) *Collector {
	return &Collector{
		client:  client,
		cfg:     cfg,
		decoder: decoder,
		log:     log.WithField("component", "collector"),
		sleep:   time.Sleep,
		now:     time.Now,
		uniform: uniformDuration,
	}
}

func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Collect navigates to a profile and harvests its in-window post URLs.
// An empty feed after a normally converged loop returns ErrNoPosts, which is
// a benign terminal outcome, not a failure.
func (c *Collector) Collect(username string) ([]string, error) {
	log := c.log.WithField("username", username)
	log.Info("starting collection")

	if _, err := c.client.Navigate(twitterapi.GetProfileURL(username)); err != nil {
		return nil, fmt.Errorf("navigation to @%s failed: %w", username, err)
	}

	if c.waitForContent() {
		log.Debug("page loaded, ready to scroll")
	} else {
		// Best effort: the poll never saw content, proceed after a pause
		c.sleep(c.uniform(1*time.Second, 2*time.Second))
	}

	urls, err := c.scrollAndCollect(log)
	if err != nil {
		return urls, err
	}

	if len(urls) == 0 {
		log.Info("no posts found in window")
		return nil, errors.ErrNoPosts
	}

	log.InfoWithFields("collection finished", map[string]interface{}{
		"urls": len(urls),
	})
	return urls, nil
}

// waitForContent polls the content-ready condition until it holds or the
// page-load timeout elapses
func (c *Collector) waitForContent() bool {
	deadline := c.now().Add(c.cfg.PageLoadTimeout)

	for c.now().Before(deadline) {
		reply, err := c.client.Evaluate(contentReadyScript)
		if err == nil && reply.Truthy() {
			return true
		}
		c.sleep(c.cfg.PollInterval)
	}
	return false
}

// scrollAndCollect drives the bounded scrolling loop. Termination conditions
// are checked in priority order after each extraction pass: error abort,
// no-new convergence, then the first-pass stale-feed heuristic.
func (c *Collector) scrollAndCollect(log logger.Logger) ([]string, error) {
	var urls []string
	seen := make(map[string]struct{})
	noNew := 0
	consecutiveErrors := 0
	script := fmt.Sprintf(extractionScriptTemplate, c.cfg.Window.Milliseconds())

	for scroll := 1; scroll <= c.cfg.MaxScrolls; scroll++ {
		log.DebugWithFields("scroll pass", map[string]interface{}{
			"scroll":      scroll,
			"max_scrolls": c.cfg.MaxScrolls,
		})

		reply, err := c.client.Evaluate(script)
		switch {
		case err != nil:
			if errors.IsUnavailable(err) {
				return urls, err
			}
			consecutiveErrors++
			log.WithError(err).Debug("extraction pass failed")

		default:
			pageURLs, ok := reply.StringSlice()
			if !ok {
				consecutiveErrors++
				log.Debug("extraction reply was not a URL list")
				break
			}

			consecutiveErrors = 0
			newCount := 0
			for _, u := range pageURLs {
				if _, dup := seen[u]; dup {
					continue
				}
				seen[u] = struct{}{}
				urls = append(urls, u)
				newCount++
			}

			if newCount > 0 {
				noNew = 0
				log.DebugWithFields("found new URLs", map[string]interface{}{
					"new":   newCount,
					"total": len(urls),
				})
			} else {
				noNew++
			}
		}

		if consecutiveErrors >= c.cfg.MaxConsecutiveErrors {
			log.WarnWithFields("aborting collection", map[string]interface{}{
				"consecutive_errors": consecutiveErrors,
				"urls_collected":     len(urls),
			})
			if len(urls) > 0 {
				return urls, nil
			}
			return nil, errors.New(errors.ErrorTypeCommand,
				"extraction aborted after %d consecutive errors", consecutiveErrors)
		}

		if noNew >= c.cfg.NoNewThreshold {
			log.Debug("no new posts, treating feed as converged")
			break
		}

		if scroll == 1 && c.cfg.EarlyStopOnYesterday && len(urls) > 0 && c.pastWindow(urls[0]) {
			// The feed already starts beyond the window, further
			// scrolling only surfaces older posts
			log.Debug("first post predates window, stopping early")
			break
		}

		if scroll < c.cfg.MaxScrolls {
			if err := c.client.Press("PageDown"); err != nil {
				if errors.IsUnavailable(err) {
					return urls, err
				}
				log.WithError(err).Debug("page advance failed")
			}
			c.sleep(c.uniform(c.cfg.PollInterval, 2*c.cfg.PollInterval))
		}
	}

	return urls, nil
}

// pastWindow decodes the post id embedded in a URL and reports whether its
// timestamp falls before the window start. This inspects only one URL and is
// an approximation: feeds are not guaranteed time-ordered.
func (c *Collector) pastWindow(url string) bool {
	id := twitterapi.ExtractPostID(url)
	if id == "" {
		return false
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false
	}

	cutoff := c.now().Add(-c.cfg.Window)
	return c.decoder.Time(n).Before(cutoff)
}
