package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/config"
	"github.com/vatline/vatline-api/internal/doccache"
	"github.com/vatline/vatline-api/internal/domain"
	"github.com/vatline/vatline-api/internal/extraction"
	"github.com/vatline/vatline-api/internal/memmon"
	"github.com/vatline/vatline-api/internal/platform/gemini"
	"github.com/vatline/vatline-api/internal/queue"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger

	// Performance layer components
	resultCache *cache.Cache[domain.ExtractionResult]
	textCache   *cache.Cache[string]
	monitor     *memmon.Monitor
	extractor   extraction.Extractor
	queue       *queue.ProcessingQueue
}

// newApplication creates a new application instance with all dependencies
// initialized but not yet started. Run starts the background loops.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	app := &application{
		config: cfg,
		logger: logger,
	}

	// Initialize the result and raw text caches
	var err error
	app.resultCache, err = doccache.NewResultCache(
		cacheConfig(doccache.ResultCacheName, cfg.ResultCache), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	app.textCache, err = doccache.NewTextCache(
		cacheConfig(doccache.TextCacheName, cfg.TextCache), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create text cache: %w", err)
	}

	// Initialize the memory monitor and register both caches as shrinkers
	app.monitor, err = memmon.New(monitorConfig(cfg.Memory), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory monitor: %w", err)
	}
	app.monitor.Register(app.resultCache)
	app.monitor.Register(app.textCache)

	// Create the extraction engine client
	app.extractor, err = gemini.NewGeminiExtractor(
		ctx,
		logger.With("component", "gemini_extractor"),
		cfg.Extraction,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize extraction engine: %w", err)
	}
	logger.Info("Extraction engine initialized",
		"model", cfg.Extraction.ModelName)

	// Initialize the processing queue over the caches and extractor
	app.queue, err = queue.NewProcessingQueue(
		queueConfig(cfg.Queue),
		app.resultCache,
		app.textCache,
		app.extractor,
		app.monitor,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create processing queue: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the background components and serves HTTP until shutdown.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	if err := app.start(); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}

	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// start brings up the background loops of every component: cache sweepers,
// the memory monitor, and the queue dispatcher and workers.
func (app *application) start() error {
	if err := app.resultCache.Start(); err != nil {
		return fmt.Errorf("failed to start result cache: %w", err)
	}
	if err := app.textCache.Start(); err != nil {
		return fmt.Errorf("failed to start text cache: %w", err)
	}
	if err := app.monitor.Start(); err != nil {
		return fmt.Errorf("failed to start memory monitor: %w", err)
	}
	if err := app.queue.Start(); err != nil {
		return fmt.Errorf("failed to start processing queue: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. The queue
// stops first so no extraction is running when the caches shut down.
func (app *application) cleanup() {
	if app.queue != nil {
		app.queue.Shutdown()
	}
	if app.monitor != nil {
		app.monitor.Stop()
	}
	if app.textCache != nil {
		app.textCache.Stop()
	}
	if app.resultCache != nil {
		app.resultCache.Stop()
	}

	app.logger.Info("Application shutdown completed")
}

// cacheConfig converts the externally supplied cache settings, with their
// plain-number durations, into the cache package's config form.
func cacheConfig(name string, cfg config.CacheConfig) cache.Config {
	return cache.Config{
		Name:           name,
		MaxEntries:     cfg.MaxEntries,
		MaxMemoryBytes: cfg.MaxMemoryBytes,
		DefaultTTL:     time.Duration(cfg.DefaultTTLSeconds) * time.Second,
		SweepInterval:  time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		MetricsEnabled: true,
	}
}

// queueConfig converts the externally supplied queue settings into the
// queue package's config form.
func queueConfig(cfg config.QueueConfig) queue.Config {
	return queue.Config{
		MaxBatchSize:        cfg.MaxBatchSize,
		MaxWaitTime:         time.Duration(cfg.MaxWaitTimeMs) * time.Millisecond,
		MaxQueueMemoryBytes: cfg.MaxQueueMemoryBytes,
		ParallelismEnabled:  cfg.ParallelismEnabled,
		WorkerCount:         cfg.WorkerCount,
		JobTimeout:          time.Duration(cfg.JobTimeoutSeconds) * time.Second,
	}
}

// monitorConfig converts the externally supplied memory settings into the
// memmon package's config form.
func monitorConfig(cfg config.MemoryConfig) memmon.Config {
	return memmon.Config{
		ThresholdBytes: cfg.ThresholdBytes,
		Interval:       time.Duration(cfg.CheckIntervalSeconds) * time.Second,
		ShrinkFraction: cfg.ShrinkFraction,
	}
}
