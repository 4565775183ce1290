// Package config loads, normalizes, and validates bundlepull configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the BUNDLEPULL_BASE_URL and BUNDLEPULL_WORKERS
// environment fallbacks. Every stage obtains its directories, transport knobs
// and worker limits from the Config type returned by Load.
package config
