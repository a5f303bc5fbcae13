package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config represents rate limiting configuration
type Config struct {
	// Global per-client rate limit settings
	GlobalRate RateConfig `json:"global_rate" yaml:"global_rate" mapstructure:"global_rate"`

	// Per-route rate limits keyed by path prefix
	RouteRates map[string]RateConfig `json:"route_rates" yaml:"route_rates" mapstructure:"route_rates"`

	// Options
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Header configuration
	DisableHeaders bool `json:"disable_headers" yaml:"disable_headers" mapstructure:"disable_headers"`

	// Exclude patterns
	ExcludedPaths []string `json:"excluded_paths" yaml:"excluded_paths" mapstructure:"excluded_paths"`

	// Excluded IPs
	ExcludedIPs []string `json:"excluded_ips" yaml:"excluded_ips" mapstructure:"excluded_ips"`
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period   time.Duration `json:"period"   yaml:"period"   mapstructure:"period"`
	Limit    int64         `json:"limit"    yaml:"limit"    mapstructure:"limit"`
	Disabled bool          `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{
			Limit:  120,
			Period: 1 * time.Minute,
		},
		RouteRates: map[string]RateConfig{
			// Uploads extract and split synchronously
			"/api/v1/documents/upload": {
				Limit:  20,
				Period: 1 * time.Minute,
			},
			"/api/v1/splitters/preview": {
				Limit:  60,
				Period: 1 * time.Minute,
			},
		},
		Prefix: "docchunk:ratelimit:",
		ExcludedPaths: []string{
			"/health",
			"/metrics",
			"/api/v1/health",
		},
		ExcludedIPs: []string{},
	}
}

// ToLimiterRate converts RateConfig to limiter.Rate
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.GlobalRate.validate("global"); err != nil {
		return err
	}
	for route, rate := range c.RouteRates {
		if err := rate.validate("route " + route); err != nil {
			return err
		}
	}
	return nil
}

func (rc RateConfig) validate(name string) error {
	if rc.Disabled {
		return nil
	}
	if rc.Limit <= 0 {
		return fmt.Errorf("%s rate limit must be positive", name)
	}
	if rc.Period <= 0 {
		return fmt.Errorf("%s rate period must be positive", name)
	}
	return nil
}
