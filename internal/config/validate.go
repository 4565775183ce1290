package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if c.Source.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/bundlepull/config.toml"
		}
		return fmt.Errorf("source.base_url is required. Set %s env var or edit %s (create with 'bundlepull config init')", envBaseURL, defaultPath)
	}
	parsed, err := url.Parse(c.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("source.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("source.base_url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("source.base_url must include a host")
	}
	if c.Source.RequestTimeoutSeconds < 0 {
		return errors.New("source.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Workers < 1 || c.Fetch.Workers > maxWorkers {
		return fmt.Errorf("fetch.workers must be between 1 and %d", maxWorkers)
	}
	if c.Fetch.RetryAttempts < 1 || c.Fetch.RetryAttempts > maxRetryAttempts {
		return fmt.Errorf("fetch.retry_attempts must be between 1 and %d", maxRetryAttempts)
	}
	if c.Fetch.RetryBackoffMS < 0 {
		return errors.New("fetch.retry_backoff_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
