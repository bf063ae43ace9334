package logger

import (
	"context"
	"log/slog"
)

// loggerContextKey is the private context key for logger values.
type loggerContextKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Request
// middleware uses this to propagate a logger annotated with request-scoped
// attributes, such as the trace ID, down to handlers and services.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		// ALLOW-PANIC: Programmer error, a nil logger in a context would
		// surface as a confusing nil dereference far from the cause.
		panic("logger cannot be nil")
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger stored in ctx, or nil when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	log, _ := ctx.Value(loggerContextKey{}).(*slog.Logger)
	return log
}

// FromContextOrDefault returns the logger stored in ctx, falling back to
// defaultLogger when the context carries none. A nil defaultLogger falls
// back to slog.Default, so the result is always usable.
func FromContextOrDefault(ctx context.Context, defaultLogger *slog.Logger) *slog.Logger {
	if log := FromContext(ctx); log != nil {
		return log
	}
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.Default()
}
