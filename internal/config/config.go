// Package config defines the luck-web process configuration and how it is
// loaded.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/okian/luck/internal/bundle"
	"github.com/okian/luck/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5173".
	Addr string `koanf:"addr"`

	// Dev serves the bundle from OutDir on disk instead of the embedded copy.
	Dev bool `koanf:"dev"`

	API API `koanf:"api"`

	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string `koanf:"cors_origins"`

	Bundle bundle.Config `koanf:"bundle"`
}

// API configures the backend client.
type API struct {
	BaseURL   string `koanf:"base_url"`
	TimeoutMS int    `koanf:"timeout_ms"`
}

// Timeout returns TimeoutMS as a duration.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: logger.FormatText,
		Addr:      ":5173",
		API: API{
			BaseURL:   "http://localhost:8080",
			TimeoutMS: 15000,
		},
		Bundle: bundle.Default(),
	}
}

// Validate checks the loaded values; errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON {
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("%w: api.timeout_ms must be positive", ErrInvalidConfig)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if err := c.Bundle.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
