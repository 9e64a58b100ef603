package cache

import "time"

// Options contains cache configuration options
type Options struct {
	Directory  string
	InMemory   bool
	GCInterval time.Duration
}

// DefaultOptions returns default cache options
func DefaultOptions(dir string) Options {
	return Options{
		Directory:  dir,
		GCInterval: 5 * time.Minute,
	}
}
