// Package main hosts the bundlepull CLI entrypoint and command graph.
//
// The Cobra command tree maps each fetch stage (settings, configs, imports,
// assets) and each extractor onto a subcommand. Commands share one lazily
// loaded configuration, a logger built from it, and a lock file that keeps
// two runs from writing into the same tree. Finished stages are rendered as
// a table and recorded in the run ledger for `bundlepull history`.
//
// Keep this package thin: behavior belongs in internal/pipeline and
// internal/extract, and commands only wire flags to those packages.
package main
