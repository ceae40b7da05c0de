package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrBrowserLaunch       = errors.New("browser launch failed")
	ErrSessionClosed       = errors.New("browser session closed")
	ErrInvalidURL          = errors.New("invalid URL")
	ErrItemNotFound        = errors.New("item not found")
)

// NavigationError wraps a failure to load a page: DNS, refused
// connection, or navigation timeout. Fatal for the single call that hit
// it; retries belong to the caller.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractError wraps a per-page extraction failure inside the pagination
// loop. It is logged and skipped, never propagated as fatal.
type ExtractError struct {
	URL  string
	Page int
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (page %d): %v", e.URL, e.Page, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps errors from the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FetchError wraps errors from the static-fetch fast path.
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
