// Package config loads, normalizes, and validates shuffler configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SHUFFLER_PLAYER. The Config type centralizes every knob the daemon and CLI
// need so the track list, state file, player command, and control surface are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
