package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	LogLevel           string   `mapstructure:"log_level"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	SourceFiles        []string `mapstructure:"source_files"`         // Local entry-list files (JSON or YAML), loaded after URLs
	SourceURLs         []string `mapstructure:"source_urls"`          // Remote entry-list endpoints, loaded first
	MaxParallelFetches int      `mapstructure:"max_parallel_fetches"` // Worker pool cap for the fetch-merge pipeline
	CacheTTLSec        int      `mapstructure:"cache_ttl_sec"`        // Manifest + release cache TTL
	GithubTimeoutSec   int      `mapstructure:"github_timeout_sec"`   // Per-request timeout for outbound fetches
	GithubRatePerSec   float64  `mapstructure:"github_rate_per_sec"`  // Token bucket rate for outbound fetches; 0 = no limit
	GithubRateBurst    int      `mapstructure:"github_rate_burst"`    // Token bucket burst; 0 = 1
	ContentBaseURL     string   `mapstructure:"content_base_url"`     // Override raw-content template (tests, mirrors)
	ReleasesURL        string   `mapstructure:"releases_url"`         // Override latest-release template
	ArchiveURL         string   `mapstructure:"archive_url"`          // Override source-archive template
	PlatformSystem     string   `mapstructure:"platform_system"`      // Override detected platform system
	PlatformArch       string   `mapstructure:"platform_arch"`        // Override detected platform arch
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // HTTP server read/write timeout
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/addonhub/")
	viper.AddConfigPath("$HOME/.addonhub")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("source_files", []string{})
	viper.SetDefault("source_urls", []string{})
	viper.SetDefault("max_parallel_fetches", 5)
	viper.SetDefault("cache_ttl_sec", 3600) // one hour for manifest and release caches
	viper.SetDefault("github_timeout_sec", 10)
	viper.SetDefault("github_rate_per_sec", 0) // 0 = disabled
	viper.SetDefault("github_rate_burst", 0)
	viper.SetDefault("content_base_url", "") // empty = public GitHub endpoints
	viper.SetDefault("releases_url", "")
	viper.SetDefault("archive_url", "")
	viper.SetDefault("platform_system", "") // empty = detect from runtime
	viper.SetDefault("platform_arch", "")
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)

	// Environment variables
	viper.SetEnvPrefix("ADDONHUB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
