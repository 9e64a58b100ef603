package domain

import (
	"context"
	"net/http"
	"time"
)

// Lister lists the immediate children of a repository path at a ref
type Lister interface {
	// List returns the children of dir. When path names a single file,
	// entries is nil and file is set instead.
	List(ctx context.Context, spec *RepoSpec, path string) (entries []TreeEntry, file *TreeEntry, err error)
	// DefaultBranch returns the repository's default branch name
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
}

// Fetcher defines the interface for raw content retrieval
type Fetcher interface {
	// Get fetches content from a URL
	Get(ctx context.Context, url string) (*Response, error)
	// Close releases resources
	Close() error
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// Cache defines the interface for content caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Sink receives the rewritten files of a run
type Sink interface {
	// Put stores one file under its output-relative path
	Put(ctx context.Context, path string, content []byte) error
	// Close finalizes the artifact and returns its location
	Close() (string, error)
}
