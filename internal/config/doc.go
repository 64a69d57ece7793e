// Package config loads, normalizes, and validates etymon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ETYMON_API_KEYS. The Config type centralizes every knob the server and
// CLI need: provider credentials, cache capacity and TTLs, gamification
// tuning, and the HTTP bind address.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
