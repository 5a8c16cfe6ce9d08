// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, a .env file and TRACKER_* environment
// variables. It provides type-safe access to the settings each component needs.
package config
