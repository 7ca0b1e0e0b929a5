// Package config maps environment variables into typed client settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration for the JobDeck client.
type Config struct {
	// APIBaseURL is the base URL of the JobDeck API gateway.
	APIBaseURL string `env:"JOBDECK_API_URL" envDefault:"https://api.jobdeck.io"`

	// HomeDir is where durable client state (the session file) lives.
	// Empty means ~/.jobdeck.
	HomeDir string `env:"JOBDECK_HOME"`

	// RequestTimeout bounds each individual API call.
	RequestTimeout time.Duration `env:"JOBDECK_REQUEST_TIMEOUT" envDefault:"30s"`

	Debug bool `env:"JOBDECK_DEBUG" envDefault:"false"`
}

// Load parses environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// ResolveHomeDir returns the durable state directory, creating it with 0700
// permissions if needed.
func (c *Config) ResolveHomeDir() (string, error) {
	dir := c.HomeDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".jobdeck")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return dir, nil
}
