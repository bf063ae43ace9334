// Package main implements the entry point for the VATLine extraction
// server, which runs the document processing queue, its caches, and the
// diagnostics HTTP endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/vatline/vatline-api/internal/config"
	"github.com/vatline/vatline-api/internal/platform/logger"
)

// main wires configuration, logging, and the application components
// together, then runs the HTTP server until a shutdown signal arrives.
func main() {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to assemble application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
// Returns the loaded config, the application logger, and any
// initialization error.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"workers", cfg.Queue.WorkerCount,
		"model", cfg.Extraction.ModelName)

	return cfg, appLogger, nil
}
