// Package config loads proxy configuration from environment variables and
// an optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the catalog proxy configuration.
type Config struct {
	// APIURL is the CMS base URL.
	APIURL string `mapstructure:"api_url"`

	// APIToken is the optional bearer credential.
	APIToken string `mapstructure:"api_token"`

	// RedisAddr enables the shared Redis cache backend when set.
	RedisAddr string `mapstructure:"redis_addr"`

	// ListenAddr is the proxy's HTTP listen address.
	ListenAddr string `mapstructure:"listen_addr"`

	Cache   CacheConfig   `mapstructure:"cache"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CacheConfig holds the value cache settings.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

// RetryConfig holds the transport retry policy.
type RetryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from the environment (CATALOG_ prefix) and, when
// configPath is non-empty, from a YAML file. Environment wins over file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "https://elantil-fe-task.directus.app")
	// Empty defaults register the keys so env-only values reach Unmarshal.
	v.SetDefault("api_token", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("listen_addr", ":8080")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.capacity", 512)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_delay", 1*time.Second)
	v.SetDefault("retry.max_delay", 10*time.Second)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", cfg.Logging.Level)
	}

	return nil
}
