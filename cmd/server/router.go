package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vatline/vatline-api/internal/api"
	apiMiddleware "github.com/vatline/vatline-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(
		apiMiddleware.TraceMiddleware(app.logger),
	) // Add trace IDs for correlated log lines

	// Create diagnostics handlers over the running components
	statsHandler := api.NewStatsHandler(
		app.queue,
		[]api.CacheStats{app.resultCache, app.textCache},
		app.monitor,
		app.logger,
	)
	jobHandler := api.NewJobHandler(app.queue, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", statsHandler.GetStats)
		r.Get("/jobs/{id}", jobHandler.GetJob)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
