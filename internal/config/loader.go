package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// SetDefaults installs the built-in configuration layer on the provided
// viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "data/ticketless.db")

	v.SetDefault("governor.max_requests", 30)
	v.SetDefault("governor.window", time.Minute)
	v.SetDefault("governor.cache_ttl", 60*time.Second)

	v.SetDefault("civic.socrata.base_url", "https://data.cityofchicago.org")
	v.SetDefault("civic.socrata.resource", "parking-citations")
	v.SetDefault("civic.socrata.cache_ttl", 5*time.Minute)
	v.SetDefault("civic.geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("civic.geocode.cache_ttl", 24*time.Hour)
	v.SetDefault("civic.mail.base_url", "https://api.lob.com")
	v.SetDefault("civic.mail.cache_ttl", 30*time.Second)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// Load decodes the merged viper state into a Config. Durations are given
// as Go duration strings ("90s", "5m").
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the process cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Governor.MaxRequests < 0 {
		return fmt.Errorf("governor.max_requests must not be negative: %d", c.Governor.MaxRequests)
	}
	if c.Governor.Window <= 0 {
		return fmt.Errorf("governor.window must be positive: %s", c.Governor.Window)
	}
	if c.Governor.CacheTTL <= 0 {
		return fmt.Errorf("governor.cache_ttl must be positive: %s", c.Governor.CacheTTL)
	}
	for key, limit := range c.Governor.RateLimits {
		if limit.MaxRequests < 0 || limit.Window <= 0 {
			return fmt.Errorf("invalid rate limit override for %q", key)
		}
	}
	return nil
}
