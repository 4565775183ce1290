package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSource(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFetch(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSource() error {
	c.Source.BaseURL = strings.TrimSpace(c.Source.BaseURL)
	if c.Source.BaseURL == "" {
		if value, ok := os.LookupEnv(envBaseURL); ok {
			c.Source.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Source.BaseURL != "" && !strings.HasSuffix(c.Source.BaseURL, "/") {
		c.Source.BaseURL += "/"
	}
	c.Source.SettingsPath = strings.TrimLeft(strings.TrimSpace(c.Source.SettingsPath), "/")
	if c.Source.SettingsPath == "" {
		c.Source.SettingsPath = defaultSettingsPath
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	c.Source.Referer = strings.TrimSpace(c.Source.Referer)
	if c.Source.RequestTimeoutSeconds == 0 {
		c.Source.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if len(c.Source.ExtraHeaders) > 0 {
		headers := make(map[string]string, len(c.Source.ExtraHeaders))
		for key, value := range c.Source.ExtraHeaders {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			headers[key] = strings.TrimSpace(value)
		}
		c.Source.ExtraHeaders = headers
	}
	return nil
}

func (c *Config) normalizePaths() error {
	targets := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.config_dir", &c.Paths.ConfigDir, defaultConfigDir},
		{"paths.import_dir", &c.Paths.ImportDir, defaultImportDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"extract.output_dir", &c.Extract.OutputDir, defaultExtractDir},
	}
	for _, target := range targets {
		if strings.TrimSpace(*target.value) == "" {
			*target.value = target.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*target.value))
		if err != nil {
			return fmt.Errorf("%s: %w", target.name, err)
		}
		*target.value = expanded
	}
	return nil
}

func (c *Config) normalizeFetch() error {
	if value, ok := os.LookupEnv(envWorkers); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", envWorkers, err)
		}
		c.Fetch.Workers = workers
	}
	if c.Fetch.Workers == 0 {
		c.Fetch.Workers = defaultWorkers
	}
	if c.Fetch.RetryAttempts == 0 {
		c.Fetch.RetryAttempts = defaultRetryAttempts
	}

	bundles := make([]string, 0, len(c.Fetch.Bundles))
	seen := make(map[string]struct{}, len(c.Fetch.Bundles))
	for _, bundle := range c.Fetch.Bundles {
		bundle = strings.TrimSpace(bundle)
		if bundle == "" {
			continue
		}
		if _, ok := seen[bundle]; ok {
			continue
		}
		seen[bundle] = struct{}{}
		bundles = append(bundles, bundle)
	}
	c.Fetch.Bundles = bundles
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
