package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"bundlepull/internal/config"
	"bundlepull/internal/logging"
	"bundlepull/internal/transport"
)

type commandContext struct {
	configFlag  *string
	workersFlag *int

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, workersFlag *int) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		workersFlag: workersFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.workersFlag != nil && *c.workersFlag != 0 {
			if *c.workersFlag < 1 || *c.workersFlag > 64 {
				c.configErr = fmt.Errorf("--workers must be between 1 and 64, got %d", *c.workersFlag)
				return
			}
			cfg.Fetch.Workers = *c.workersFlag
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newClient(cfg *config.Config) (*transport.Client, error) {
	return transport.New(transport.Config{
		BaseURL:            cfg.Source.BaseURL,
		UserAgent:          cfg.Source.UserAgent,
		Referer:            cfg.Source.Referer,
		Headers:            cfg.Source.ExtraHeaders,
		Timeout:            cfg.RequestTimeout(),
		InsecureSkipVerify: cfg.Source.InsecureSkipVerify,
	})
}

// withLock holds the run lock for the duration of fn so two invocations
// never write into the same trees at once.
func (c *commandContext) withLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bundlepull run holds " + cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
