// Package history keeps a SQLite ledger of pipeline runs.
//
// Each run is inserted when it starts and updated when it finishes, so a
// crashed process leaves a row in the running state. The ledger is
// informational: the pipeline never reads it to decide what to do.
package history
