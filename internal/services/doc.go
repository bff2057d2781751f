// Package services defines shared error and context utilities consumed by the
// pipeline stages and the model backends.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as transient, configuration, or external tool problems.
//   - The typed failure taxonomy (AudioError, TranscriptionError, ...) that the
//     orchestrator reports back to callers.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
