// Package ratelimit provides rate limiting for the content-fetch stage.
//
// The read APIs the enricher calls are public and unauthenticated, so the
// fetch worker pool throttles itself through a token bucket to avoid getting
// blocked.
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
package ratelimit
