package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "openclaw", cfg.Browser.Command)
	assert.Equal(t, 10, cfg.Browser.MaxRestarts)
	assert.Equal(t, 5, cfg.Crawl.Workers)
	assert.Equal(t, 120*time.Second, cfg.Crawl.UserTimeout)
	assert.Equal(t, 5, cfg.Crawl.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Crawl.Window)
	assert.Equal(t, 10, cfg.Crawl.MaxScrolls)
	assert.Equal(t, 2, cfg.Crawl.NoNewThreshold)
	assert.Equal(t, 3, cfg.Crawl.MaxConsecutiveErrors)
	assert.True(t, cfg.Crawl.EarlyStopOnYesterday)
	assert.Equal(t, 10, cfg.Fetch.Workers)
	assert.Equal(t, int64(1288834974657), cfg.Snowflake.EpochMillis)
	assert.Equal(t, uint(22), cfg.Snowflake.TimestampShift)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOTCRAWL_BROWSER_COMMAND", "/usr/local/bin/openclaw")
	t.Setenv("HOTCRAWL_CRAWL_WORKERS", "8")
	t.Setenv("HOTCRAWL_FETCH_WORKERS", "20")
	t.Setenv("HOTCRAWL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("HOTCRAWL_RESULTS_DIR", "/tmp/results")
	t.Setenv("HOTCRAWL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/usr/local/bin/openclaw", cfg.Browser.Command)
	assert.Equal(t, 8, cfg.Crawl.Workers)
	assert.Equal(t, 20, cfg.Fetch.Workers)
	assert.Equal(t, 30, cfg.Fetch.RequestsPerMinute)
	assert.Equal(t, "/tmp/results", cfg.Output.ResultsDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("HOTCRAWL_CRAWL_WORKERS", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 5, cfg.Crawl.Workers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
browser:
  command: custom-tool
crawl:
  workers: 3
  user_timeout: 90s
output:
  results_dir: /data/crawls
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "custom-tool", cfg.Browser.Command)
	assert.Equal(t, 3, cfg.Crawl.Workers)
	assert.Equal(t, 90*time.Second, cfg.Crawl.UserTimeout)
	assert.Equal(t, "/data/crawls", cfg.Output.ResultsDir)

	// Untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Fetch.Workers)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"browser-command": "flag-tool",
		"workers":         2,
		"fetch-workers":   4,
		"user-timeout":    45 * time.Second,
		"max-retries":     7,
		"results-dir":     "/flag/results",
		"users-file":      "flag-users.txt",
		"log-level":       "warn",
	})

	assert.Equal(t, "flag-tool", cfg.Browser.Command)
	assert.Equal(t, 2, cfg.Crawl.Workers)
	assert.Equal(t, 4, cfg.Fetch.Workers)
	assert.Equal(t, 45*time.Second, cfg.Crawl.UserTimeout)
	assert.Equal(t, 7, cfg.Crawl.MaxRetries)
	assert.Equal(t, "/flag/results", cfg.Output.ResultsDir)
	assert.Equal(t, "flag-users.txt", cfg.Output.UsersFile)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"browser-command": "",
		"workers":         0,
		"user-timeout":    time.Duration(0),
	})

	assert.Equal(t, "openclaw", cfg.Browser.Command)
	assert.Equal(t, 5, cfg.Crawl.Workers)
	assert.Equal(t, 120*time.Second, cfg.Crawl.UserTimeout)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty browser command", func(c *Config) { c.Browser.Command = "" }},
		{"zero command timeout", func(c *Config) { c.Browser.CommandTimeout = 0 }},
		{"negative restart budget", func(c *Config) { c.Browser.MaxRestarts = -1 }},
		{"zero crawl workers", func(c *Config) { c.Crawl.Workers = 0 }},
		{"zero user timeout", func(c *Config) { c.Crawl.UserTimeout = 0 }},
		{"zero max retries", func(c *Config) { c.Crawl.MaxRetries = 0 }},
		{"zero window", func(c *Config) { c.Crawl.Window = 0 }},
		{"zero max scrolls", func(c *Config) { c.Crawl.MaxScrolls = 0 }},
		{"zero fetch workers", func(c *Config) { c.Fetch.Workers = 0 }},
		{"zero epoch", func(c *Config) { c.Snowflake.EpochMillis = 0 }},
		{"oversized shift", func(c *Config) { c.Snowflake.TimestampShift = 64 }},
		{"empty results dir", func(c *Config) { c.Output.ResultsDir = "" }},
		{"empty lock file", func(c *Config) { c.Output.LockFile = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.Workers = 9
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 9, loaded.Crawl.Workers)
}
