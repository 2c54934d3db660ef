// Package config loads, normalizes, and validates lectern's TOML
// configuration.
//
// Load resolves the file from an explicit path, ~/.config/lectern/config.toml,
// or ./lectern.toml, layers it over Default(), expands ~ in paths, and applies
// LECTERN_EMAIL / LECTERN_PASSWORD environment overrides for credentials.
package config
