// Package logging assembles the slog loggers shared by every bundlepull
// stage.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// standard field keys (component, bundle, asset, run_id, stage). WithContext
// stamps run, bundle and stage values carried on a context so worker code
// does not have to thread them by hand. NewNop is available for tests and
// wiring that must not fail.
package logging
