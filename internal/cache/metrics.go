package cache

import "time"

// Metrics is a point-in-time snapshot of cache counters.
//
// TotalOps counts read operations (hits plus misses); writes are not
// included so HitRate stays a pure read-effectiveness measure. Expired
// entries removed on access or by the sweeper count as Expirations, never
// Evictions, which are reserved for capacity and memory pressure.
type Metrics struct {
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	TotalOps    int64         `json:"total_ops"`
	HitRate     float64       `json:"hit_rate"`
	AvgLatency  time.Duration `json:"avg_latency_ns"`
	EntryCount  int           `json:"entry_count"`
	MemoryBytes int64         `json:"memory_bytes"`
}

// EntryInfo describes a cached entry for diagnostics.
type EntryInfo struct {
	Key            string    `json:"key"`
	HitCount       int64     `json:"hit_count"`
	SizeBytes      int64     `json:"size_bytes"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
