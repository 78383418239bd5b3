// Package config loads, normalizes, and validates shortreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours .env files plus environment
// fallbacks such as PEXELS_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, so storage locations, provider credentials and render
// policy are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
