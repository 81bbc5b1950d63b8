// Package config loads, normalizes, and validates Oakwood configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI and agent-tool server need: data and log directories, the Open
// Library endpoint, the server socket, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
