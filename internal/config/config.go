package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Source describes the remote deployment assets are pulled from.
type Source struct {
	BaseURL               string            `toml:"base_url"`
	SettingsPath          string            `toml:"settings_path"`
	UserAgent             string            `toml:"user_agent"`
	Referer               string            `toml:"referer"`
	ExtraHeaders          map[string]string `toml:"extra_headers"`
	InsecureSkipVerify    bool              `toml:"insecure_skip_verify"`
	RequestTimeoutSeconds int               `toml:"request_timeout_seconds"`
}

// Paths contains the local directory layout.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	ConfigDir string `toml:"config_dir"`
	ImportDir string `toml:"import_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Fetch controls download concurrency and retry behaviour.
type Fetch struct {
	Workers        int      `toml:"workers"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryBackoffMS int      `toml:"retry_backoff_ms"`
	Overwrite      bool     `toml:"overwrite"`
	FlattenNames   bool     `toml:"flatten_names"`
	Bundles        []string `toml:"bundles"`
}

// Extract toggles the post-download structural passes.
type Extract struct {
	Skeletons  bool   `toml:"skeletons"`
	Animations bool   `toml:"animations"`
	OutputDir  string `toml:"output_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bundlepull.
type Config struct {
	Source  Source  `toml:"source"`
	Paths   Paths   `toml:"paths"`
	Fetch   Fetch   `toml:"fetch"`
	Extract Extract `toml:"extract"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bundlepull/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. The string result is the resolved
// path and the bool reports whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("bundlepull.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pull run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.ConfigDir, c.Paths.ImportDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.RequestTimeoutSeconds) * time.Second
}

// RetryBackoff returns the fixed delay between native download attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Fetch.RetryBackoffMS) * time.Millisecond
}

// SettingsCachePath is where the fetched settings document is kept.
func (c *Config) SettingsCachePath() string {
	return filepath.Join(c.Paths.ConfigDir, "settings.json")
}

// LockPath is the single-writer lock file guarding a workspace.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "bundlepull.lock")
}

// LedgerPath is the SQLite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// WantsBundle reports whether name passes the fetch.bundles filter. An empty
// filter selects every bundle.
func (c *Config) WantsBundle(name string) bool {
	if len(c.Fetch.Bundles) == 0 {
		return true
	}
	return slices.Contains(c.Fetch.Bundles, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
