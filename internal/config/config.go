// Package config reads client settings from CLAIMSURE_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds client and dev-service settings.
// Example: CLAIMSURE_BASE_URL=https://claims.example.com
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"http://localhost:5000"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// SessionDB is the SQLite file holding the session credential.
	// Empty means <user config dir>/claimsure/session.db.
	SessionDB string `envconfig:"SESSION_DB"`

	Debug bool `envconfig:"DEBUG" default:"false"`

	// RateLimit caps outgoing requests per second; 0 disables limiting.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"0"`
	RateBurst int     `envconfig:"RATE_BURST" default:"5"`

	// Dev service
	DevAddr       string        `envconfig:"DEV_ADDR" default:":5000"`
	DueSoonWindow time.Duration `envconfig:"DUE_SOON_WINDOW" default:"720h"`
}

// New parses the environment and resolves defaults.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("CLAIMSURE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Dur("http_timeout", cfg.HTTPTimeout).
		Str("session_db", cfg.SessionDB).
		Float64("rate_limit", cfg.RateLimit).
		Msg("Configuration loaded")
	return &cfg, nil
}

// ResolveDefaults validates the base URL and fills in the session path.
func (c *Config) ResolveDefaults() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid BASE_URL: %q", c.BaseURL)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("invalid HTTP_TIMEOUT: %s", c.HTTPTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT: %v", c.RateLimit)
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.DueSoonWindow <= 0 {
		return fmt.Errorf("invalid DUE_SOON_WINDOW: %s", c.DueSoonWindow)
	}
	if c.SessionDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.SessionDB = filepath.Join(dir, "claimsure", "session.db")
	}
	return nil
}

// NewForTesting returns defaults suitable for tests against baseURL.
func NewForTesting(baseURL, sessionDB string) *Config {
	return &Config{
		BaseURL:       baseURL,
		HTTPTimeout:   5 * time.Second,
		SessionDB:     sessionDB,
		RateBurst:     5,
		DevAddr:       "127.0.0.1:0",
		DueSoonWindow: 30 * 24 * time.Hour,
	}
}
