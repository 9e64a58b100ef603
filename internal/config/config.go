package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	GitHub      GitHubConfig      `mapstructure:"github" yaml:"github"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	Directory  string `mapstructure:"directory" yaml:"directory"`
	Zip        bool   `mapstructure:"zip" yaml:"zip"`
	RootFolder string `mapstructure:"root_folder" yaml:"root_folder"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Listers int           `mapstructure:"listers" yaml:"listers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// HTTPConfig contains outbound request settings
type HTTPConfig struct {
	Proxy       string `mapstructure:"proxy" yaml:"proxy"`
	NoProxy     string `mapstructure:"no_proxy" yaml:"no_proxy"`
	UserAgent   string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRetries  int    `mapstructure:"max_retries" yaml:"max_retries"`
	MaxFileSize string `mapstructure:"max_file_size" yaml:"max_file_size"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// GitHubConfig contains provider endpoints and credentials
type GitHubConfig struct {
	Token  string `mapstructure:"token" yaml:"token"`
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	Host   string `mapstructure:"host" yaml:"host"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDir
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Workers > MaxWorkers {
		c.Concurrency.Workers = MaxWorkers
	}
	if c.Concurrency.Listers < 1 {
		c.Concurrency.Listers = DefaultListers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.HTTP.MaxRetries < 0 {
		c.HTTP.MaxRetries = 0
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultAPIURL
	}
	if !strings.HasSuffix(c.GitHub.APIURL, "/") {
		c.GitHub.APIURL += "/"
	}
	if c.GitHub.Host == "" {
		c.GitHub.Host = DefaultHost
	}
	if c.HTTP.Proxy != "" {
		if _, err := url.Parse(c.HTTP.Proxy); err != nil {
			return fmt.Errorf("invalid http.proxy: %w", err)
		}
	}
	if c.HTTP.MaxFileSize == "" {
		c.HTTP.MaxFileSize = DefaultMaxFileSize
	} else if _, err := ParseSize(c.HTTP.MaxFileSize); err != nil {
		return fmt.Errorf("invalid http.max_file_size: %w", err)
	}
	return nil
}

// MaxFileSizeBytes returns the parsed per-file size cap, 0 meaning unlimited
func (c *Config) MaxFileSizeBytes() int64 {
	n, err := ParseSize(c.HTTP.MaxFileSize)
	if err != nil {
		return 0
	}
	return n
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.GitHub.Token != "" {
		c.GitHub.Token = "********"
	}
	return c
}

func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
