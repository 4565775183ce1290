package testsupport

import (
	"path/filepath"
	"testing"

	"bundlepull/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retry backoff is zeroed so retry paths do not slow tests down.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Source.BaseURL = "http://127.0.0.1:1/"
	cfgVal.Paths = config.Paths{
		OutputDir: filepath.Join(base, "assets"),
		ConfigDir: filepath.Join(base, "configs"),
		ImportDir: filepath.Join(base, "imports"),
		StateDir:  filepath.Join(base, "state"),
		LogDir:    filepath.Join(base, "logs"),
	}
	cfgVal.Extract.OutputDir = filepath.Join(base, "extracted")
	cfgVal.Fetch.Workers = 4
	cfgVal.Fetch.RetryBackoffMS = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBaseURL points the test config at a mock deployment.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.BaseURL = url
	}
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.Workers = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
