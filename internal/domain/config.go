package domain

import "time"

// Config holds the runtime configuration mapped from viper.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`

	// Memory cache tier.
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries int           `mapstructure:"cache_max_entries"`

	// Persistent cache tier.
	DBFreshWindow time.Duration `mapstructure:"db_fresh_window"`

	// Anonymous-session upstream quota.
	AnonSearchLimit int `mapstructure:"anon_search_limit"`

	// Sessions.
	SessionCookie string        `mapstructure:"session_cookie"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SessionSecure bool          `mapstructure:"session_secure"`

	// Upstream metadata API.
	UpstreamBaseURL string        `mapstructure:"upstream_base_url"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	UpstreamRate    float64       `mapstructure:"upstream_rate"`

	// Static bearer-token map for the identity verifier (token -> user id).
	APITokens map[string]string `mapstructure:"api_tokens"`
}
