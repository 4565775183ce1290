package config

const (
	defaultSettingsPath          = "src/settings.4229e.json"
	defaultUserAgent             = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	defaultRequestTimeoutSeconds = 15
	defaultOutputDir             = "~/.local/share/bundlepull/assets"
	defaultConfigDir             = "~/.local/share/bundlepull/configs"
	defaultImportDir             = "~/.local/share/bundlepull/imports"
	defaultStateDir              = "~/.local/state/bundlepull"
	defaultLogDir                = "~/.local/state/bundlepull/logs"
	defaultExtractDir            = "~/.local/share/bundlepull/extracted"
	defaultWorkers               = 8
	maxWorkers                   = 64
	defaultRetryAttempts         = 3
	maxRetryAttempts             = 10
	defaultRetryBackoffMS        = 1000
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	envBaseURL = "BUNDLEPULL_BASE_URL"
	envWorkers = "BUNDLEPULL_WORKERS"
)

// Default returns a Config populated with repository defaults. BaseURL is
// left empty because there is no sensible default origin.
func Default() Config {
	return Config{
		Source: Source{
			SettingsPath:          defaultSettingsPath,
			UserAgent:             defaultUserAgent,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
			ConfigDir: defaultConfigDir,
			ImportDir: defaultImportDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Fetch: Fetch{
			Workers:        defaultWorkers,
			RetryAttempts:  defaultRetryAttempts,
			RetryBackoffMS: defaultRetryBackoffMS,
		},
		Extract: Extract{
			OutputDir: defaultExtractDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
