// Package config loads, normalizes, and validates proctor's TOML
// configuration.
//
// Load resolves the config path (explicit flag, ~/.config/proctor/config.toml,
// or ./proctor.toml), decodes it over Default(), expands ~ in every path
// field, and repairs out-of-range values before Validate runs. Components
// receive a *Config and derive their own paths through the helper methods
// rather than joining strings themselves.
package config
