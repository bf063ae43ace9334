package doccache

import (
	"log/slog"
	"time"

	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/domain"
)

// Cache names used in log lines and the stats endpoint.
const (
	ResultCacheName = "extraction_results"
	TextCacheName   = "raw_text"
)

// DefaultResultConfig returns the configuration used for the extraction
// result cache when no overrides are supplied. Results are small JSON
// documents, so the entry count dominates the memory budget.
func DefaultResultConfig() cache.Config {
	return cache.Config{
		Name:           ResultCacheName,
		MaxEntries:     512,
		MaxMemoryBytes: 64 << 20,
		DefaultTTL:     30 * time.Minute,
		SweepInterval:  5 * time.Minute,
		MetricsEnabled: true,
	}
}

// DefaultTextConfig returns the configuration used for the raw text
// cache when no overrides are supplied. Raw text payloads are larger
// than results, so the memory budget dominates the entry count.
func DefaultTextConfig() cache.Config {
	return cache.Config{
		Name:           TextCacheName,
		MaxEntries:     256,
		MaxMemoryBytes: 128 << 20,
		DefaultTTL:     15 * time.Minute,
		SweepInterval:  2 * time.Minute,
		MetricsEnabled: true,
	}
}

// NewResultCache creates a cache for extraction results. Entry sizes are
// estimated from the JSON encoding of each result.
func NewResultCache(cfg cache.Config, logger *slog.Logger) (*cache.Cache[domain.ExtractionResult], error) {
	return cache.New[domain.ExtractionResult](cfg, logger)
}

// NewTextCache creates a cache for raw document text. Entry sizes are
// measured exactly from string length.
func NewTextCache(cfg cache.Config, logger *slog.Logger) (*cache.Cache[string], error) {
	c, err := cache.New[string](cfg, logger)
	if err != nil {
		return nil, err
	}
	c.SetSizer(cache.StringSizer())

	return c, nil
}
