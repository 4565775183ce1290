// Package services defines shared utilities consumed by the pipeline stages
// and the transport layer.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, bundle names, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers decide
//     whether a failure skips a bundle, retries a request, or is simply a miss.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
