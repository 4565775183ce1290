// Package ledger records completed runs in SQLite so past pulls can be
// reviewed with `bundlepull history`.
//
// Each run stores its totals plus one row per bundle. The database lives under
// the state directory and is history only: nothing in a run reads it back to
// decide what to fetch. Schema changes bump schemaVersion in schema.go; users
// delete the database to adopt the new schema.
package ledger
