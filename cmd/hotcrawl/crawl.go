package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hotcrawl/pkg/config"
	"hotcrawl/pkg/crawler"
	"hotcrawl/pkg/logger"
)

var (
	// Crawl command flags
	browserCommand string
	crawlWorkers   int
	fetchWorkers   int
	userTimeout    time.Duration
	maxRetries     int
	resultsDir     string
	usersFile      string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [username]",
	Short: "Crawl recent posts from the configured profiles",
	Long: `Crawl the trailing 24-hour window of every profile in the users file.

Collected URLs are appended to a text result as each profile completes, then
all posts are enriched through the read APIs into a markdown report. With a
username argument, only that profile is crawled and its URLs are printed to
stdout, skipping the result files.`,
	Example: `  # Crawl every profile in users.txt
  hotcrawl crawl

  # Crawl a single profile
  hotcrawl crawl johndoe

  # More crawl workers, custom results directory
  hotcrawl crawl --workers 8 --results-dir ./out`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCrawl(args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&browserCommand, "browser-command", "", "browser control tool binary")
	crawlCmd.Flags().IntVar(&crawlWorkers, "workers", 0, "number of concurrent crawl workers")
	crawlCmd.Flags().IntVar(&fetchWorkers, "fetch-workers", 0, "number of concurrent content-fetch workers")
	crawlCmd.Flags().DurationVar(&userTimeout, "user-timeout", 0, "per-profile collection timeout")
	crawlCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "per-profile retry attempts")
	crawlCmd.Flags().StringVar(&resultsDir, "results-dir", "", "directory for result artifacts")
	crawlCmd.Flags().StringVar(&usersFile, "users-file", "", "profile list file")
}

func runCrawl(args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}

	log := logger.GetLogger()
	log.WithField("version", version).Info("hotcrawl starting")

	c, err := crawler.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize crawler")
		os.Exit(1)
	}

	if len(args) == 1 {
		urls, err := c.RunProfile(args[0])
		if err != nil {
			log.WithError(err).WithField("username", args[0]).Error("crawl failed")
			os.Exit(1)
		}
		for _, url := range urls {
			fmt.Println(url)
		}
		return
	}

	if err := c.RunAll(); err != nil {
		log.WithError(err).Error("crawl run failed")
		os.Exit(1)
	}
}

// loadConfig builds the layered configuration from file, env, and flags
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if browserCommand != "" {
		flags["browser-command"] = browserCommand
	}
	if crawlWorkers > 0 {
		flags["workers"] = crawlWorkers
	}
	if fetchWorkers > 0 {
		flags["fetch-workers"] = fetchWorkers
	}
	if userTimeout > 0 {
		flags["user-timeout"] = userTimeout
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if resultsDir != "" {
		flags["results-dir"] = resultsDir
	}
	if usersFile != "" {
		flags["users-file"] = usersFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	return config.Load(configFile, flags)
}
