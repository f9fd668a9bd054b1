package twitterapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotcrawl/pkg/config"
	"hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
)

const fxTweetPayload = `{
	"code": 200,
	"message": "OK",
	"tweet": {
		"url": "https://x.com/alice/status/123",
		"text": "hello from the primary API",
		"created_at": "Mon Mar 09 12:00:00 +0000 2026",
		"author": {"name": "Alice", "screen_name": "alice"},
		"likes": 10,
		"retweets": 2,
		"replies": 1,
		"views": 500
	}
}`

const syndicationPayload = `{
	"text": "hello from the fallback API",
	"created_at": "2026-03-09T12:00:00.000Z",
	"user": {"name": "Alice", "screen_name": "alice"},
	"favorite_count": 7,
	"retweet_count": 3
}`

func newTestClient(t *testing.T, fxServer, synServer *httptest.Server) *Client {
	t.Helper()

	c := NewClient(config.FetchConfig{
		Workers:           1,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 1000,
		UserAgent:         "test-agent",
	}, logger.GetLogger())

	if fxServer != nil {
		u, err := url.Parse(fxServer.URL)
		require.NoError(t, err)
		c.SetFxHost(u.Host)
	}
	if synServer != nil {
		c.SetSyndicationBase(synServer.URL)
	}
	return c
}

func TestFetchPostPrefersPrimary(t *testing.T) {
	var synCalls atomic.Int32

	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alice/status/123", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(fxTweetPayload))
	}))
	defer fx.Close()

	syn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		synCalls.Add(1)
		w.Write([]byte(syndicationPayload))
	}))
	defer syn.Close()

	c := newTestClient(t, fx, syn)

	post, err := c.FetchPost("https://x.com/alice/status/123")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, SourceFxTwitter, post.Source)
	require.NotNil(t, post.Tweet)
	assert.Equal(t, "hello from the primary API", post.Tweet.Text)
	assert.Equal(t, "alice", post.Tweet.Author.ScreenName)
	assert.Equal(t, 10, post.Tweet.Likes)
	assert.Equal(t, int32(0), synCalls.Load(), "fallback must not be queried when primary succeeds")
}

func TestFetchPostFallsBackOnPrimaryFailure(t *testing.T) {
	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer fx.Close()

	syn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123", r.URL.Query().Get("id"))
		assert.Equal(t, "0", r.URL.Query().Get("token"))
		w.Write([]byte(syndicationPayload))
	}))
	defer syn.Close()

	c := newTestClient(t, fx, syn)

	post, err := c.FetchPost("https://x.com/alice/status/123")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, SourceSyndication, post.Source)
	assert.Nil(t, post.Tweet)
	require.NotNil(t, post.Syndication)
	assert.Equal(t, "hello from the fallback API", post.Syndication.Text)
	assert.Equal(t, 7, post.Syndication.FavoriteCount)
}

func TestFetchPostFallsBackOnEmptyPrimaryPayload(t *testing.T) {
	// Well-formed envelope with no tweet is a miss, not an error
	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 404, "message": "NOT_FOUND"}`))
	}))
	defer fx.Close()

	syn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(syndicationPayload))
	}))
	defer syn.Close()

	c := newTestClient(t, fx, syn)

	post, err := c.FetchPost("https://x.com/alice/status/123")
	require.NoError(t, err)
	assert.Equal(t, SourceSyndication, post.Source)
}

func TestFetchPostBothSourcesMiss(t *testing.T) {
	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer fx.Close()

	syn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer syn.Close()

	c := newTestClient(t, fx, syn)

	post, err := c.FetchPost("https://x.com/alice/status/123")
	require.Error(t, err)
	assert.Nil(t, post)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
}

func TestFetchPostMalformedURLSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := newTestClient(t, server, server)

	post, err := c.FetchPost("https://x.com/alice")
	require.Error(t, err)
	assert.Nil(t, post)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchPostRateLimitIsTyped(t *testing.T) {
	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer fx.Close()

	syn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer syn.Close()

	c := newTestClient(t, fx, syn)

	_, err := c.FetchPost("https://x.com/alice/status/123")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeRateLimit, errors.TypeOf(err))
}

func TestFetchPostArticlePayload(t *testing.T) {
	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"code": 200,
			"tweet": {
				"author": {"name": "Alice", "screen_name": "alice"},
				"article": {
					"title": "Long form",
					"created_at": "2026-03-09T12:00:00.000Z",
					"content": {"blocks": [
						{"type": "header-one", "text": "Intro"},
						{"type": "unstyled", "text": "Body text"}
					]}
				}
			}
		}`))
	}))
	defer fx.Close()

	c := newTestClient(t, fx, nil)

	post, err := c.FetchPost("https://x.com/alice/status/123")
	require.NoError(t, err)
	require.NotNil(t, post.Tweet)
	require.NotNil(t, post.Tweet.Article)
	assert.Equal(t, "Long form", post.Tweet.Article.Title)
	require.Len(t, post.Tweet.Article.Content.Blocks, 2)
	assert.Equal(t, "header-one", post.Tweet.Article.Content.Blocks[0].Type)
}
