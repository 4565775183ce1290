// Package pipeline drives the three fetch stages over a deployment.
//
// Configs mirrors every bundle manifest under the config directory. Imports
// prefetches import records into the import directory. Assets resolves each
// bundle's native payloads into the output tree and, when enabled, runs the
// skeleton and animation extractors once a bundle finishes.
//
// Every stage fans work out to a bounded pool sized by fetch.workers. Tasks
// never fail the pool: each produces a result the stage folds into a
// per-bundle tally, and a bundle whose manifest cannot be loaded is skipped
// without stopping the run. Existence indexes are built once per bundle
// before its tasks start and are only read afterwards, so a resumed run
// issues no requests for files already on disk.
package pipeline
