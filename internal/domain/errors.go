package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidSpec indicates the subject URL could not be resolved into a repository spec
	ErrInvalidSpec = errors.New("invalid repository spec")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrListingFailed indicates a directory listing request failed
	ErrListingFailed = errors.New("listing failed")

	// ErrFetchFailed indicates a file content request failed
	ErrFetchFailed = errors.New("fetch failed")

	// ErrSingleFileFetch indicates the only file of a single-file download could not be fetched
	ErrSingleFileFetch = errors.New("single file fetch failed")

	// ErrArchiveWriteFailed indicates building or persisting the zip archive failed
	ErrArchiveWriteFailed = errors.New("archive write failed")

	// ErrWriteFailed indicates writing output failed
	ErrWriteFailed = errors.New("write failed")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried.
// Rate limiting (429) is never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return false
	}

	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 502, 503, 504:
			return true
		}
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrTimeout)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidSpec on any validation error.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSpec
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ListingError is reported when one directory of the remote tree could not be listed.
type ListingError struct {
	Path string
	URL  string
	Err  error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %q failed (%s): %v", e.Path, e.URL, e.Err)
}

func (e *ListingError) Unwrap() []error {
	return []error{ErrListingFailed, e.Err}
}
