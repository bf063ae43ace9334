package api

import (
	"time"

	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/memmon"
	"github.com/vatline/vatline-api/internal/queue"
)

// Common response structures for the diagnostics endpoints.

// StatsResponse aggregates the live metrics of every performance-layer
// component into one snapshot.
type StatsResponse struct {
	// Queue holds the processing queue counters.
	Queue queue.Stats `json:"queue"`

	// Caches holds one entry per bounded cache, keyed by cache name in
	// the Caches slice order the server registered them.
	Caches []CacheStatsResponse `json:"caches"`

	// Memory holds the memory monitor counters.
	Memory memmon.Stats `json:"memory"`

	// GeneratedAt is when this snapshot was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// CacheStatsResponse describes one bounded cache instance.
type CacheStatsResponse struct {
	// Name is the configured cache name.
	Name string `json:"name"`

	// Metrics is the cache's counter snapshot.
	Metrics cache.Metrics `json:"metrics"`

	// TopEntries lists the most frequently hit entries, hottest first.
	TopEntries []cache.EntryInfo `json:"top_entries,omitempty"`
}

// JobResponse is the wire form of a job record.
type JobResponse struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name"`
	Category    string     `json:"category"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error carries the failure reason for failed jobs.
	Error string `json:"error,omitempty"`

	// Result is the extraction output for completed jobs.
	Result interface{} `json:"result,omitempty"`
}

// jobToResponse converts a queue job snapshot to its wire form.
func jobToResponse(info queue.JobInfo) JobResponse {
	resp := JobResponse{
		ID:         info.ID.String(),
		FileName:   info.FileName,
		Category:   string(info.Category),
		Priority:   info.Priority,
		Status:     string(info.Status),
		EnqueuedAt: info.EnqueuedAt,
	}

	if !info.StartedAt.IsZero() {
		startedAt := info.StartedAt
		resp.StartedAt = &startedAt
	}
	if !info.CompletedAt.IsZero() {
		completedAt := info.CompletedAt
		resp.CompletedAt = &completedAt
	}
	if info.Err != nil {
		resp.Error = info.Err.Error()
	}
	if info.Result != nil {
		resp.Result = info.Result
	}

	return resp
}
