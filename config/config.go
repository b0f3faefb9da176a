// Package config loads scheduler settings from a YAML file and turns them
// into the maps that scheduler.Configure consumes. A settings file looks
// like:
//
//	providers:
//	  openai:
//	    limit: 9000
//	    window: 1m
//	  anthropic:
//	    limit: 3600
//	    window: 1m
//	concurrency:
//	  openai: 8
//	  "openai:gpt-4": 2
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/FrenchMajesty/throttle-run/rate_limit"
	"gopkg.in/yaml.v3"
)

// ProviderLimit is the YAML shape of one provider's rate limit entry.
type ProviderLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Config holds the parsed settings file.
type Config struct {
	Providers   map[string]ProviderLimit `yaml:"providers"`
	Concurrency map[string]int           `yaml:"concurrency"`
}

// Load reads and validates the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse validates and decodes raw YAML settings.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("config declares no providers")
	}

	for name, limit := range cfg.Providers {
		if limit.Limit <= 0 {
			return nil, fmt.Errorf("provider %q: limit must be positive, got %d", name, limit.Limit)
		}
		if limit.Window <= 0 {
			return nil, fmt.Errorf("provider %q: window must be positive, got %s", name, limit.Window)
		}
	}

	for key, limit := range cfg.Concurrency {
		if limit <= 0 {
			return nil, fmt.Errorf("concurrency %q: limit must be positive, got %d", key, limit)
		}
	}

	return &cfg, nil
}

// RateLimits converts the provider entries into the map Configure expects.
func (c *Config) RateLimits() map[string]rate_limit.RateLimit {
	limits := make(map[string]rate_limit.RateLimit, len(c.Providers))
	for name, entry := range c.Providers {
		limits[name] = rate_limit.RateLimit{
			Limit:  entry.Limit,
			Window: entry.Window,
		}
	}
	return limits
}

// ModelConcurrency returns the concurrency entries, keyed by either
// "provider" or "provider:model".
func (c *Config) ModelConcurrency() map[string]int {
	concurrency := make(map[string]int, len(c.Concurrency))
	for key, limit := range c.Concurrency {
		concurrency[key] = limit
	}
	return concurrency
}
