// Package config loads, normalizes, and validates ticketsmith configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// JIRA_API_TOKEN and OPENROUTER_API_KEY. The Config type centralizes every
// knob the CLI, the HTTP server, and the workflow need, so Jira credentials,
// agent settings, and state directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
