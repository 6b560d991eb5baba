package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrBlocked       = errors.New("blocked by remote host")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrMalformedBody = errors.New("response body is not valid JSON")
	ErrEmptyBody     = errors.New("empty response body")
)

// FetchError wraps errors that occur while fetching a single URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// IsRetryable reports whether err is a fetch error worth another attempt.
// Blocked and malformed-body failures are terminal for the call.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// StorageError wraps errors that occur while reading or writing the data directory.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
