// Package retry provides backoff and retry logic for handling transient
// failures in crawl and network operations.
//
// Features:
//   - Multiple backoff strategies (exponential, attempt-scaled uniform, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the crawl error taxonomy
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.FetchPost(url)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ScaledUniformBackoff{
//			Min: 1 * time.Second,
//			Max: 3 * time.Second,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// The default predicate consults the typed error taxonomy: command, session
// loss, timeout, network, rate limit, and server errors retry; unavailability,
// parsing failures, and the empty-window sentinel do not.
package retry
