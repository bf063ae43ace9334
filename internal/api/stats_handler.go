package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vatline/vatline-api/internal/api/shared"
	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/memmon"
	"github.com/vatline/vatline-api/internal/platform/logger"
	"github.com/vatline/vatline-api/internal/queue"
)

// topEntryLimit caps how many hot entries each cache reports in the stats
// response.
const topEntryLimit = 10

// QueueStats provides the processing queue's counter snapshot.
type QueueStats interface {
	Stats() queue.Stats
}

// CacheStats provides one bounded cache's counter snapshot and its hottest
// entries.
type CacheStats interface {
	Name() string
	Stats() cache.Metrics
	TopEntries(limit int) []cache.EntryInfo
}

// MemoryStats provides the memory monitor's counter snapshot.
type MemoryStats interface {
	Stats() memmon.Stats
}

// StatsHandler serves the aggregated statistics endpoint.
type StatsHandler struct {
	queue  QueueStats
	caches []CacheStats
	memory MemoryStats
	logger *slog.Logger
}

// NewStatsHandler creates a StatsHandler over the given components. Caches
// are reported in the order given.
func NewStatsHandler(
	queueStats QueueStats,
	cacheStats []CacheStats,
	memoryStats MemoryStats,
	logger *slog.Logger,
) *StatsHandler {
	return &StatsHandler{
		queue:  queueStats,
		caches: cacheStats,
		memory: memoryStats,
		logger: logger.With("component", "stats_handler"),
	}
}

// GetStats handles GET /api/stats requests.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{
		Queue:       h.queue.Stats(),
		Memory:      h.memory.Stats(),
		GeneratedAt: time.Now().UTC(),
	}

	for _, c := range h.caches {
		response.Caches = append(response.Caches, CacheStatsResponse{
			Name:       c.Name(),
			Metrics:    c.Stats(),
			TopEntries: c.TopEntries(topEntryLimit),
		})
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger)
	log.Debug("serving stats snapshot",
		"pending_jobs", response.Queue.PendingJobs,
		"cache_count", len(response.Caches))

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
