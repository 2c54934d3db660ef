package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately via RequireCredentials because merge-only maintenance runs do
// not need them.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSession() error {
	parsed, err := url.Parse(c.Session.BaseURL)
	if err != nil {
		return fmt.Errorf("session.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("session.base_url must be an http(s) URL, got %q", c.Session.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("session.base_url is missing a host: %q", c.Session.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireCredentials verifies that login credentials are configured. Called
// before any network work by modes that authenticate.
func (c *Config) RequireCredentials() error {
	if c.Session.Email == "" || strings.TrimSpace(c.Session.Password) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lectern/config.toml"
		}
		return fmt.Errorf("session credentials are required. Set LECTERN_EMAIL and LECTERN_PASSWORD env vars or edit %s (create with 'lectern config init')", defaultPath)
	}
	if c.Session.Email == "your_email@example.com" {
		return fmt.Errorf("session.email still holds the sample placeholder; edit your config with real credentials")
	}
	return nil
}
