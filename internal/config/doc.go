// Package config loads, normalizes, and validates squeeze's TOML
// configuration. Path fields are tilde-expanded and made absolute during
// Load; callers can assume every configured directory is an absolute path.
package config
