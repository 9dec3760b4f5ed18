// Package config provides centralized configuration management for
// Ticketless. Values are layered: built-in defaults, an optional YAML
// config file, then TICKETLESS_* environment variables and flags (viper).
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Governor GovernorConfig `mapstructure:"governor"`
	Civic    CivicConfig    `mapstructure:"civic"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken      string        `mapstructure:"admin_token"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// GovernorConfig controls the outbound-call governor: the default per-key
// window, per-key overrides, and the response cache TTL. Keys in RateLimits
// are governor keys (endpoint paths or lookup identifiers).
type GovernorConfig struct {
	MaxRequests int                        `mapstructure:"max_requests"`
	Window      time.Duration              `mapstructure:"window"`
	CacheTTL    time.Duration              `mapstructure:"cache_ttl"`
	RateLimits  map[string]RateLimitConfig `mapstructure:"rate_limits"`
}

// RateLimitConfig is a per-key governor override.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// CivicConfig configures the downstream municipal API clients.
type CivicConfig struct {
	Socrata SocrataConfig `mapstructure:"socrata"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Mail    MailConfig    `mapstructure:"mail"`
}

// SocrataConfig configures the open-data portal client.
type SocrataConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Resource string        `mapstructure:"resource"`
	AppToken string        `mapstructure:"app_token"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// GeocodeConfig configures the geocoder client.
type GeocodeConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// MailConfig configures the direct-mail provider client.
type MailConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
