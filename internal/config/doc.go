// Package config loads and validates application configuration from the
// environment and optional config files.
package config
