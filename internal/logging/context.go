package logging

import (
	"context"
	"log/slog"
)

// Shared attribute keys. Handlers treat FieldComponent specially on the
// console output, so components should always tag themselves with it.
const (
	FieldComponent     = "component"
	FieldAsset         = "asset"
	FieldCorrelationID = "correlation_id"
)

// WithComponent returns a logger tagged with the originating subsystem name.
func WithComponent(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, name))
}

type contextKey int

const loggerContextKey contextKey = iota

// IntoContext stores the logger in the context for retrieval deeper in the
// call chain, typically per API request.
func IntoContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the logger stored by IntoContext, or a no-op logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return NewNop()
}
