package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	DefaultOutputDir = "."

	// Concurrency defaults
	DefaultWorkers = 10
	MaxWorkers     = 64
	DefaultListers = 4
	DefaultTimeout = 60 * time.Second

	// HTTP defaults
	DefaultMaxRetries  = 0
	DefaultMaxFileSize = "100MB"

	// Cache defaults
	DefaultCacheEnabled = false
	DefaultCacheTTL     = time.Hour

	// Provider defaults
	DefaultAPIURL = "https://api.github.com/"
	DefaultHost   = "github.com"

	// Logging defaults
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".downgit"
	}
	return filepath.Join(home, ".downgit")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Directory: DefaultOutputDir,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Listers: DefaultListers,
			Timeout: DefaultTimeout,
		},
		HTTP: HTTPConfig{
			MaxRetries:  DefaultMaxRetries,
			MaxFileSize: DefaultMaxFileSize,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		GitHub: GitHubConfig{
			APIURL: DefaultAPIURL,
			Host:   DefaultHost,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
