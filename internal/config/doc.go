// Package config loads, normalizes, and validates the TOML configuration
// used by the daybrief CLI and pipeline.
package config
