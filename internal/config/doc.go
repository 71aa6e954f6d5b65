// Package config loads, normalizes, and validates Pixly configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files plus optional .env files, and honours
// environment fallbacks such as GEMINI_API_KEY. The Config type centralizes
// every knob the daemon and CLI need, from monitored folders to the AI rate
// limit.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
