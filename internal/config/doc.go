// Package config loads, normalizes, and validates archivist configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours ARCHIVIST_* environment overrides.
// The Config type centralizes every knob the daemon and CLI need: state and
// staging directories, worker counts, extractor settings, and the archive
// definitions that decide which accounts are tracked and how often they are
// re-scanned.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical service keys, and clear validation errors.
package config
