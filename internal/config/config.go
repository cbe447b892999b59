package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// Remote backend
	APIBaseURL  string        `env:"API_BASE_URL" envDefault:"http://localhost:8081"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Session
	TokenFile string `env:"TOKEN_FILE"`

	// Ledger
	PageLimit int `env:"PAGE_LIMIT" envDefault:"10"`
	Parties   int `env:"PARTIES" envDefault:"2"`

	// Query cache
	CacheSize int           `env:"CACHE_SIZE" envDefault:"64"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Load reads configuration from the environment. TOKEN_FILE defaults to
// the user config directory when unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config directory: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "duobook", "token")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	if c.PageLimit < 1 || c.PageLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid page limit %d: must be between 1 and 100", c.PageLimit))
	}

	if c.Parties < 1 {
		errors = append(errors, fmt.Sprintf("invalid party count %d: must be at least 1", c.Parties))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
