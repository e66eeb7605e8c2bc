// Package config loads, normalizes, and validates the pixelframe TOML
// configuration.
//
// It owns the on-disk schema (paths, display, playback, api, logging
// sections), the embedded sample file written by `pixelframe config init`,
// and the tilde/path expansion rules shared by the daemon and CLI. Prefer
// Load over hand-parsing so every entry point observes the same defaults
// and validation.
package config
