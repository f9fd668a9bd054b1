package twitterapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hotcrawl/pkg/config"
	"hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/ratelimit"
)

// Client fetches post content through the public read APIs, primary first
// with a secondary fallback. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger

	// overridable in tests
	fxHost          string
	syndicationBase string
}

// NewClient creates a read-API client from fetch configuration
func NewClient(cfg config.FetchConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "application/json",
			"Accept-Language": "en-US,en;q=0.9",
		},
		limiter:         ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute),
		logger:          log.WithField("component", "twitterapi"),
		fxHost:          FxTwitterHost,
		syndicationBase: SyndicationBaseURL,
	}
}

// SetFxHost overrides the primary API host, for tests
func (c *Client) SetFxHost(host string) {
	c.fxHost = host
}

// SetSyndicationBase overrides the secondary API base URL, for tests
func (c *Client) SetSyndicationBase(base string) {
	c.syndicationBase = base
}

// FetchPost enriches a post URL, trying the primary API first and falling
// back to the secondary. A nil error with a populated Post means one of the
// two produced a recognizable payload.
func (c *Client) FetchPost(postURL string) (*Post, error) {
	postID := ExtractPostID(postURL)
	if postID == "" {
		return nil, errors.New(errors.ErrorTypeParsing, "cannot extract post id from URL: %s", postURL)
	}

	tweet, err := c.fetchViaFxTwitter(postURL)
	if err == nil && tweet != nil {
		return &Post{URL: postURL, Source: SourceFxTwitter, Tweet: tweet}, nil
	}
	if err != nil {
		c.logger.DebugWithFields("primary read API failed, trying fallback", map[string]interface{}{
			"url":   postURL,
			"error": err.Error(),
		})
	}

	syn, err := c.fetchViaSyndication(postID)
	if err != nil {
		return nil, err
	}
	if syn == nil {
		return nil, errors.New(errors.ErrorTypeNotFound, "no read API produced content for %s", postURL)
	}

	return &Post{URL: postURL, Source: SourceSyndication, Syndication: syn}, nil
}

// fetchViaFxTwitter queries the primary API by rewriting the post URL host.
// A nil tweet with a nil error means the payload was well-formed but empty.
func (c *Client) fetchViaFxTwitter(postURL string) (*FxTweet, error) {
	apiURL := c.fxTwitterURL(postURL)
	if apiURL == "" {
		return nil, errors.New(errors.ErrorTypeParsing, "URL not rewritable for primary API: %s", postURL)
	}

	var resp FxResponse
	if err := c.getJSON(apiURL, &resp); err != nil {
		return nil, err
	}

	return resp.Tweet, nil
}

// fetchViaSyndication queries the secondary API by post id. A nil response
// with a nil error means the payload carried no text.
func (c *Client) fetchViaSyndication(postID string) (*SyndicationResponse, error) {
	var resp SyndicationResponse
	if err := c.getJSON(SyndicationURL(c.syndicationBase, postID), &resp); err != nil {
		return nil, err
	}

	if resp.Text == "" {
		return nil, nil
	}
	return &resp, nil
}

// fxTwitterURL rewrites a post URL to the configured primary API host
func (c *Client) fxTwitterURL(postURL string) string {
	rewritten := FxTwitterURL(postURL)
	if rewritten == "" || c.fxHost == FxTwitterHost {
		return rewritten
	}

	u, err := url.Parse(rewritten)
	if err != nil {
		return ""
	}
	u.Host = c.fxHost
	if strings.HasPrefix(c.fxHost, "127.0.0.1") || strings.HasPrefix(c.fxHost, "localhost") {
		u.Scheme = "http"
	}
	return u.String()
}

// getJSON performs a rate-limited GET and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	c.limiter.Wait()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return errors.New(errors.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy
func checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "post not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limited by read API",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
