package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration through the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (DOWNGIT_*)
	v.SetEnvPrefix("DOWNGIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "DOWNGIT_GITHUB_TOKEN", "GITHUB_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.zip", false)
	v.SetDefault("output.root_folder", "")

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("concurrency.listers", d.Concurrency.Listers)
	v.SetDefault("concurrency.timeout", d.Concurrency.Timeout)

	v.SetDefault("http.proxy", "")
	v.SetDefault("http.no_proxy", "")
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("http.max_file_size", d.HTTP.MaxFileSize)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.directory", d.Cache.Directory)

	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", d.GitHub.APIURL)
	v.SetDefault("github.host", d.GitHub.Host)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// MarshalYAML renders the configuration with secrets redacted
func MarshalYAML(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg.Redacted())
}
