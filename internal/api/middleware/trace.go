// Package middleware holds the HTTP middleware applied around the
// diagnostics endpoints.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/vatline/vatline-api/internal/api/shared"
	"github.com/vatline/vatline-api/internal/platform/logger"
)

// TraceMiddleware assigns each request a trace ID and stores a logger
// annotated with it in the request context. It should run early in the
// middleware chain so every subsequent handler logs with the same trace ID.
func TraceMiddleware(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := baseLogger.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
