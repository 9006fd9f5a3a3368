// Package config loads the user's settings from ~/.config/new/config.json
// into an explicit Config value. Every setting can be overridden with a
// NEW_-prefixed environment variable, and NEW_CONFIG points at an alternate
// file.
package config
