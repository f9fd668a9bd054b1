package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the crawler
type Config struct {
	// Browser control surface settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Crawl loop and supervision settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Content fetch (read API) settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Snowflake id decoding parameters
	Snowflake SnowflakeConfig `yaml:"snowflake" json:"snowflake"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig holds settings for the external browser control surface
type BrowserConfig struct {
	// Command is the control tool binary invoked for every browser action
	Command        string        `yaml:"command" json:"command"`
	CommandTimeout time.Duration `yaml:"command_timeout" json:"command_timeout"`
	StatusTimeout  time.Duration `yaml:"status_timeout" json:"status_timeout"`

	// ActionMaxAttempts bounds attempts per command, including the one retry
	// granted after a successful session recovery
	ActionMaxAttempts int `yaml:"action_max_attempts" json:"action_max_attempts"`

	// MaxRestarts is the lifetime restart budget for the whole process
	MaxRestarts    int           `yaml:"max_restarts" json:"max_restarts"`
	StopSettle     time.Duration `yaml:"stop_settle" json:"stop_settle"`
	RestartBackoff time.Duration `yaml:"restart_backoff" json:"restart_backoff"`
	StartSettle    time.Duration `yaml:"start_settle" json:"start_settle"`
}

// CrawlConfig holds the scroll/collect loop and per-profile supervision settings
type CrawlConfig struct {
	Workers     int           `yaml:"workers" json:"workers"`
	UserTimeout time.Duration `yaml:"user_timeout" json:"user_timeout"`

	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`

	// Window is the trailing period a post must fall inside to be collected
	Window time.Duration `yaml:"window" json:"window"`

	PageLoadTimeout time.Duration `yaml:"page_load_timeout" json:"page_load_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval" json:"poll_interval"`

	MaxScrolls           int  `yaml:"max_scrolls" json:"max_scrolls"`
	NoNewThreshold       int  `yaml:"no_new_threshold" json:"no_new_threshold"`
	MaxConsecutiveErrors int  `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
	EarlyStopOnYesterday bool `yaml:"early_stop_on_yesterday" json:"early_stop_on_yesterday"`
}

// FetchConfig holds content enrichment settings
type FetchConfig struct {
	Workers           int           `yaml:"workers" json:"workers"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// SnowflakeConfig holds the provider id scheme parameters
type SnowflakeConfig struct {
	EpochMillis    int64 `yaml:"epoch_millis" json:"epoch_millis"`
	TimestampShift uint  `yaml:"timestamp_shift" json:"timestamp_shift"`
}

// OutputConfig holds result artifact locations
type OutputConfig struct {
	ResultsDir string `yaml:"results_dir" json:"results_dir"`
	UsersFile  string `yaml:"users_file" json:"users_file"`
	LockFile   string `yaml:"lock_file" json:"lock_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Command:           "openclaw",
			CommandTimeout:    30 * time.Second,
			StatusTimeout:     10 * time.Second,
			ActionMaxAttempts: 2,
			MaxRestarts:       10,
			StopSettle:        2 * time.Second,
			RestartBackoff:    30 * time.Second,
			StartSettle:       3 * time.Second,
		},
		Crawl: CrawlConfig{
			Workers:              5,
			UserTimeout:          120 * time.Second,
			MaxRetries:           5,
			RetryBaseDelay:       1 * time.Second,
			RetryMaxDelay:        3 * time.Second,
			Window:               24 * time.Hour,
			PageLoadTimeout:      5 * time.Second,
			PollInterval:         500 * time.Millisecond,
			MaxScrolls:           10,
			NoNewThreshold:       2,
			MaxConsecutiveErrors: 3,
			EarlyStopOnYesterday: true,
		},
		Fetch: FetchConfig{
			Workers:           10,
			Timeout:           15 * time.Second,
			RequestsPerMinute: 60,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		},
		Snowflake: SnowflakeConfig{
			EpochMillis:    1288834974657,
			TimestampShift: 22,
		},
		Output: OutputConfig{
			ResultsDir: "./results",
			UsersFile:  "users.txt",
			LockFile:   ".hotcrawl.lock",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if command := os.Getenv("HOTCRAWL_BROWSER_COMMAND"); command != "" {
		c.Browser.Command = command
	}

	if workers := os.Getenv("HOTCRAWL_CRAWL_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Crawl.Workers = val
		}
	}

	if workers := os.Getenv("HOTCRAWL_FETCH_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Fetch.Workers = val
		}
	}

	if rpm := os.Getenv("HOTCRAWL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Fetch.RequestsPerMinute = val
		}
	}

	if userAgent := os.Getenv("HOTCRAWL_USER_AGENT"); userAgent != "" {
		c.Fetch.UserAgent = userAgent
	}

	if resultsDir := os.Getenv("HOTCRAWL_RESULTS_DIR"); resultsDir != "" {
		c.Output.ResultsDir = resultsDir
	}

	if usersFile := os.Getenv("HOTCRAWL_USERS_FILE"); usersFile != "" {
		c.Output.UsersFile = usersFile
	}

	if logLevel := os.Getenv("HOTCRAWL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFile := os.Getenv("HOTCRAWL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".hotcrawl.yaml",
		".hotcrawl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "hotcrawl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "hotcrawl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".hotcrawl.yaml"),
		filepath.Join(os.Getenv("HOME"), ".hotcrawl.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Browser.Command == "" {
		errs = append(errs, errors.New("browser command is required"))
	}
	if c.Browser.CommandTimeout <= 0 {
		errs = append(errs, errors.New("browser command timeout must be positive"))
	}
	if c.Browser.ActionMaxAttempts <= 0 {
		errs = append(errs, errors.New("browser action attempts must be positive"))
	}
	if c.Browser.MaxRestarts < 0 {
		errs = append(errs, errors.New("browser max restarts cannot be negative"))
	}

	if c.Crawl.Workers <= 0 {
		errs = append(errs, errors.New("crawl workers must be positive"))
	}
	if c.Crawl.UserTimeout <= 0 {
		errs = append(errs, errors.New("user timeout must be positive"))
	}
	if c.Crawl.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.Crawl.Window <= 0 {
		errs = append(errs, errors.New("crawl window must be positive"))
	}
	if c.Crawl.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Crawl.NoNewThreshold <= 0 {
		errs = append(errs, errors.New("no-new threshold must be positive"))
	}
	if c.Crawl.MaxConsecutiveErrors <= 0 {
		errs = append(errs, errors.New("consecutive error threshold must be positive"))
	}

	if c.Fetch.Workers <= 0 {
		errs = append(errs, errors.New("fetch workers must be positive"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Snowflake.EpochMillis <= 0 {
		errs = append(errs, errors.New("snowflake epoch must be positive"))
	}
	if c.Snowflake.TimestampShift == 0 || c.Snowflake.TimestampShift > 63 {
		errs = append(errs, errors.New("snowflake timestamp shift must be between 1 and 63"))
	}

	if c.Output.ResultsDir == "" {
		errs = append(errs, errors.New("results directory is required"))
	}
	if c.Output.UsersFile == "" {
		errs = append(errs, errors.New("users file is required"))
	}
	if c.Output.LockFile == "" {
		errs = append(errs, errors.New("lock file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if command, ok := flags["browser-command"].(string); ok && command != "" {
		c.Browser.Command = command
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Crawl.Workers = workers
	}
	if workers, ok := flags["fetch-workers"].(int); ok && workers > 0 {
		c.Fetch.Workers = workers
	}
	if timeout, ok := flags["user-timeout"].(time.Duration); ok && timeout > 0 {
		c.Crawl.UserTimeout = timeout
	}
	if retries, ok := flags["max-retries"].(int); ok && retries > 0 {
		c.Crawl.MaxRetries = retries
	}
	if dir, ok := flags["results-dir"].(string); ok && dir != "" {
		c.Output.ResultsDir = dir
	}
	if file, ok := flags["users-file"].(string); ok && file != "" {
		c.Output.UsersFile = file
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".hotcrawl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
