package errors

import (
	"errors"
	"fmt"
)

// ErrNoPosts marks the benign outcome of a crawl that completed normally but
// found nothing inside the time window. It is a terminal success, never retried.
var ErrNoPosts = errors.New("no posts found in window")

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeCommand is a control command that exited non-zero or produced
	// unparsable output.
	ErrorTypeCommand ErrorType = "command"
	// ErrorTypeSessionLost is the "tab not found" class of failures.
	ErrorTypeSessionLost ErrorType = "session_lost"
	// ErrorTypeTimeout is a collection attempt that exceeded its wall-clock budget.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnavailable means the browser restart budget is exhausted or the
	// control surface was never reachable. Fatal for the rest of the run.
	ErrorTypeUnavailable ErrorType = "unavailable"

	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a typed crawl or API error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error without an associated code.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not a *Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsUnavailable reports whether err carries the fatal unavailability type.
func IsUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeUnavailable
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeCommand, ErrorTypeSessionLost, ErrorTypeTimeout,
		ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeUnavailable, ErrorTypeParsing, ErrorTypeNotFound:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
