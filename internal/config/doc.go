// Package config loads, normalizes, and validates speechline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and batch pipeline need: segmentation strategy and thresholds, lexicon
// override files, noise tagging, forced alignment limits, and log rotation.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
