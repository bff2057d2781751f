// Package config loads, normalizes, and validates dualsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DUALSUB_TRANSLATE_URL and HF_TOKEN. The Config type centralizes every knob the
// CLI and pipeline need; PipelineConfig turns it into the immutable value a
// single run consumes.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical engine names, and clear validation errors.
package config
