package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/shelfdb/internal/domain"
)

// Defaults for every tunable; each mirrors the documented reference behavior.
const (
	defaultPort            = 3000
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheMaxEntries = 200
	defaultDBFreshWindow   = 24 * time.Hour
	defaultAnonSearchLimit = 3
	defaultSessionTTL      = 24 * time.Hour
	defaultSessionCookie   = "shelfdb_sid"
	defaultUpstreamBaseURL = "https://www.googleapis.com/books/v1"
	defaultUpstreamTimeout = 15 * time.Second
	defaultUpstreamRate    = 5.0
)

// Load builds the configuration from viper sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (SHELFDB_*)
func Load() (*domain.Config, error) {
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", defaultPort)
	viper.SetDefault("data_dir", ".")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("cache_ttl", defaultCacheTTL)
	viper.SetDefault("cache_max_entries", defaultCacheMaxEntries)
	viper.SetDefault("db_fresh_window", defaultDBFreshWindow)
	viper.SetDefault("anon_search_limit", defaultAnonSearchLimit)
	viper.SetDefault("session_cookie", defaultSessionCookie)
	viper.SetDefault("session_ttl", defaultSessionTTL)
	viper.SetDefault("session_secure", false)
	viper.SetDefault("upstream_base_url", defaultUpstreamBaseURL)
	viper.SetDefault("upstream_timeout", defaultUpstreamTimeout)
	viper.SetDefault("upstream_rate", defaultUpstreamRate)

	cfg := &domain.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *domain.Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries < 1 {
		return fmt.Errorf("cache_max_entries must be at least 1, got %d", cfg.CacheMaxEntries)
	}
	if cfg.DBFreshWindow <= 0 {
		return fmt.Errorf("db_fresh_window must be positive, got %s", cfg.DBFreshWindow)
	}
	if cfg.AnonSearchLimit < 0 {
		return fmt.Errorf("anon_search_limit must not be negative, got %d", cfg.AnonSearchLimit)
	}
	if cfg.UpstreamBaseURL == "" {
		return fmt.Errorf("upstream_base_url is required")
	}
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream_timeout must be positive, got %s", cfg.UpstreamTimeout)
	}
	return nil
}
