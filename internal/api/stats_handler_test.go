package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/memmon"
	"github.com/vatline/vatline-api/internal/queue"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeQueueStats is a stub implementation of the QueueStats interface
type fakeQueueStats struct {
	stats queue.Stats
}

func (f *fakeQueueStats) Stats() queue.Stats {
	return f.stats
}

// fakeCacheStats is a stub implementation of the CacheStats interface
type fakeCacheStats struct {
	name    string
	metrics cache.Metrics
	entries []cache.EntryInfo

	// topEntriesLimit records the limit the handler asked for
	topEntriesLimit int
}

func (f *fakeCacheStats) Name() string {
	return f.name
}

func (f *fakeCacheStats) Stats() cache.Metrics {
	return f.metrics
}

func (f *fakeCacheStats) TopEntries(limit int) []cache.EntryInfo {
	f.topEntriesLimit = limit
	if len(f.entries) > limit {
		return f.entries[:limit]
	}
	return f.entries
}

// fakeMemoryStats is a stub implementation of the MemoryStats interface
type fakeMemoryStats struct {
	stats memmon.Stats
}

func (f *fakeMemoryStats) Stats() memmon.Stats {
	return f.stats
}

func TestGetStats(t *testing.T) {
	queueStats := &fakeQueueStats{
		stats: queue.Stats{
			PendingJobs:         3,
			InFlightJobs:        2,
			TotalJobs:           120,
			CompletedJobs:       100,
			FailedJobs:          15,
			ShortCircuits:       40,
			SuccessRate:         100.0 / 115.0,
			AvgProcessingTime:   250 * time.Millisecond,
			CompletedLastMinute: 12,
			Workers:             4,
		},
	}

	resultCache := &fakeCacheStats{
		name: "extraction_results",
		metrics: cache.Metrics{
			Hits:        80,
			Misses:      40,
			Evictions:   5,
			Expirations: 3,
			TotalOps:    120,
			HitRate:     80.0 / 120.0,
			EntryCount:  52,
			MemoryBytes: 1 << 20,
		},
		entries: []cache.EntryInfo{
			{Key: "vat:aaaa", HitCount: 30, SizeBytes: 2048},
			{Key: "vat:bbbb", HitCount: 12, SizeBytes: 1024},
		},
	}

	textCache := &fakeCacheStats{
		name: "raw_text",
		metrics: cache.Metrics{
			Hits:       10,
			Misses:     90,
			TotalOps:   100,
			HitRate:    0.1,
			EntryCount: 9,
		},
	}

	memoryStats := &fakeMemoryStats{
		stats: memmon.Stats{
			CurrentBytes:   64 << 20,
			ThresholdBytes: 500 << 20,
			Checks:         42,
			PressureEvents: 1,
			LastCheckAt:    time.Now().UTC(),
		},
	}

	handler := NewStatsHandler(
		queueStats,
		[]CacheStats{resultCache, textCache},
		memoryStats,
		newTestLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response StatsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, queueStats.stats, response.Queue)
	assert.Equal(t, memoryStats.stats.CurrentBytes, response.Memory.CurrentBytes)
	assert.Equal(t, memoryStats.stats.Checks, response.Memory.Checks)
	assert.False(t, response.GeneratedAt.IsZero())

	// Caches are reported in registration order
	require.Len(t, response.Caches, 2)
	assert.Equal(t, "extraction_results", response.Caches[0].Name)
	assert.Equal(t, "raw_text", response.Caches[1].Name)

	assert.Equal(t, resultCache.metrics, response.Caches[0].Metrics)
	require.Len(t, response.Caches[0].TopEntries, 2)
	assert.Equal(t, "vat:aaaa", response.Caches[0].TopEntries[0].Key)
	assert.Empty(t, response.Caches[1].TopEntries)

	// The handler asks each cache for a bounded number of hot entries
	assert.Equal(t, topEntryLimit, resultCache.topEntriesLimit)
	assert.Equal(t, topEntryLimit, textCache.topEntriesLimit)
}

func TestGetStatsNoCaches(t *testing.T) {
	handler := NewStatsHandler(
		&fakeQueueStats{},
		nil,
		&fakeMemoryStats{},
		newTestLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response StatsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Empty(t, response.Caches)
	assert.Zero(t, response.Queue.PendingJobs)
}
