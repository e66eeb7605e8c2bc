// Package logging assembles the structured slog loggers used across the
// pixelframe daemon and CLI.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so player and API code tag log lines with the
// asset being played and request correlation IDs. A no-op logger is provided
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
