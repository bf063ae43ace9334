package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vatline/vatline-api/internal/bench"
)

// Validation errors returned by Config.Validate.
var (
	ErrInvalidMaxEntries    = errors.New("max entries must be positive")
	ErrInvalidMaxMemory     = errors.New("max memory bytes must be positive")
	ErrInvalidDefaultTTL    = errors.New("default TTL must be positive")
	ErrInvalidSweepInterval = errors.New("sweep interval must be positive")
)

// Timed operation names used with the internal recorder.
const (
	opGet = "get"
	opSet = "set"
)

// Config holds the tuning knobs for a Cache instance.
type Config struct {
	// Name identifies the cache in logs and diagnostics.
	Name string

	// MaxEntries caps the number of stored entries.
	MaxEntries int

	// MaxMemoryBytes caps the estimated total size of stored values.
	MaxMemoryBytes int64

	// DefaultTTL applies to entries stored without an explicit TTL.
	DefaultTTL time.Duration

	// SweepInterval is how often the background sweeper removes expired
	// entries once Start has been called.
	SweepInterval time.Duration

	// MetricsEnabled controls per-operation latency sampling.
	MetricsEnabled bool
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("cache %q: %w", c.Name, ErrInvalidMaxEntries)
	}
	if c.MaxMemoryBytes <= 0 {
		return fmt.Errorf("cache %q: %w", c.Name, ErrInvalidMaxMemory)
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("cache %q: %w", c.Name, ErrInvalidDefaultTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("cache %q: %w", c.Name, ErrInvalidSweepInterval)
	}
	return nil
}

// entry is the stored representation of a cached value.
type entry[V any] struct {
	key            string
	value          V
	createdAt      time.Time
	ttl            time.Duration
	hitCount       int64
	lastAccessedAt time.Time
	sizeBytes      int64
}

// expired reports whether the entry's TTL has elapsed at now. An entry is
// live through the exact TTL boundary.
func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is an in-memory key-value store bounded by entry count, estimated
// memory, and per-entry TTL. Eviction removes the least recently used
// entries first; entries never read are ordered by insertion time. All
// methods are safe for concurrent use, so request paths, the background
// sweeper, and the memory monitor may mutate the cache simultaneously.
type Cache[V any] struct {
	mu          sync.Mutex
	cfg         Config
	entries     map[string]*list.Element
	order       *list.List // front is most recently used
	memoryBytes int64

	sizer    Sizer[V]
	now      func() time.Time
	recorder *bench.Recorder
	logger   *slog.Logger

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	started   bool
}

// New creates a Cache with the given configuration. Values are sized with
// JSONSizer unless SetSizer installs a replacement.
func New[V any](cfg Config, logger *slog.Logger) (*Cache[V], error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Cache[V]{
		cfg:      cfg,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		sizer:    JSONSizer[V](),
		now:      time.Now,
		recorder: bench.NewRecorder(0),
		logger:   logger.With("component", "cache", "cache", cfg.Name),
	}, nil
}

// SetSizer replaces the value sizer. Entries already stored keep the sizes
// recorded at write time.
func (c *Cache[V]) SetSizer(s Sizer[V]) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizer = s
}

// Name returns the configured cache name.
func (c *Cache[V]) Name() string {
	return c.cfg.Name
}

// Set stores value under key with the configured default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.cfg.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL, replacing any
// existing entry. A non-positive ttl falls back to the default. Entries are
// evicted from the LRU end until the value fits the memory budget, then
// until the entry count is within bounds. A single value larger than the
// whole budget is not stored: no amount of eviction could make it fit.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	var start time.Time
	if c.cfg.MetricsEnabled {
		start = time.Now()
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	size, err := c.sizer(value)
	if err != nil {
		c.logger.Debug("value sizing failed, using default estimate",
			"key", key,
			"error", err)
		size = DefaultSizeEstimate
	}

	if size > c.cfg.MaxMemoryBytes {
		c.logger.Warn("value exceeds cache memory budget, not stored",
			"key", key,
			"size_bytes", size,
			"max_memory_bytes", c.cfg.MaxMemoryBytes)
		return
	}

	now := c.now()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}

	for c.memoryBytes+size > c.cfg.MaxMemoryBytes && c.order.Len() > 0 {
		c.evictOldest(now)
	}

	ent := &entry[V]{
		key:            key,
		value:          value,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now,
		sizeBytes:      size,
	}
	c.entries[key] = c.order.PushFront(ent)
	c.memoryBytes += size

	for c.order.Len() > c.cfg.MaxEntries {
		c.evictOldest(now)
	}

	c.recordOp(opSet, start)
}

// Get returns the live value stored under key. An expired entry is removed
// and reported as a miss; expiry is counted separately from eviction. A
// live hit bumps the entry's hit count and promotes it to the
// most-recently-used position.
func (c *Cache[V]) Get(key string) (V, bool) {
	var start time.Time
	if c.cfg.MetricsEnabled {
		start = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		c.recordOp(opGet, start)
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	now := c.now()
	if ent.expired(now) {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		c.recordOp(opGet, start)
		return zero, false
	}

	ent.hitCount++
	ent.lastAccessedAt = now
	c.order.MoveToFront(elem)
	c.hits++
	c.recordOp(opGet, start)
	return ent.value, true
}

// Has reports whether a live entry exists under key without promoting
// recency or touching the hit/miss counters. An expired entry found here is
// removed.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	ent := elem.Value.(*entry[V])
	if ent.expired(c.now()) {
		c.removeElement(elem)
		c.expirations++
		return false
	}
	return true
}

// Delete removes the entry under key if present. Deleting an absent key is
// a no-op; the return value reports whether an entry was removed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear empties the cache and resets all metrics to zero.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.memoryBytes = 0
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.expirations = 0
	c.recorder.Reset()
	c.logger.Info("cache cleared")
}

// Sweep removes every expired entry regardless of capacity pressure and
// returns how many were removed. The background sweeper calls this on each
// tick; it is also callable on demand.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		ent := elem.Value.(*entry[V])
		if ent.expired(now) {
			c.removeElement(elem)
			c.expirations++
			removed++
		}
		elem = prev
	}
	if removed > 0 {
		c.logger.Debug("sweep removed expired entries", "removed", removed)
	}
	return removed
}

// EvictFraction removes the given fraction of current entries from the LRU
// end, rounding up, and returns how many were removed. The fraction is
// clamped to [0, 1]. The memory monitor uses this during memory pressure to
// shrink the cache beyond what capacity eviction alone would remove.
func (c *Cache[V]) EvictFraction(fraction float64) int {
	if fraction <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target := int(math.Ceil(fraction * float64(c.order.Len())))
	now := c.now()
	for i := 0; i < target; i++ {
		c.evictOldest(now)
	}
	if target > 0 {
		c.logger.Info("evicted least recently used entries",
			"evicted", target,
			"remaining", c.order.Len())
	}
	return target
}

// TopEntries returns up to limit entries ordered by hit count descending,
// for diagnostics. A non-positive limit returns all entries.
func (c *Cache[V]) TopEntries(limit int) []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]EntryInfo, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		ent := elem.Value.(*entry[V])
		infos = append(infos, EntryInfo{
			Key:            ent.key,
			HitCount:       ent.hitCount,
			SizeBytes:      ent.sizeBytes,
			LastAccessedAt: ent.lastAccessedAt,
		})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].HitCount > infos[j].HitCount
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	m := Metrics{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		TotalOps:    total,
		AvgLatency:  c.recorder.Average(opGet),
		EntryCount:  c.order.Len(),
		MemoryBytes: c.memoryBytes,
	}
	if total > 0 {
		m.HitRate = float64(c.hits) / float64(total)
	}
	return m
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// MemoryBytes returns the estimated total size of stored values.
func (c *Cache[V]) MemoryBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memoryBytes
}

// Start launches the background sweeper. It returns an error if the cache
// is already started.
func (c *Cache[V]) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("cache %q already started", c.cfg.Name)
	}
	c.started = true
	c.runCtx, c.runCancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.sweeper(c.runCtx)
	return nil
}

// Stop terminates the background sweeper and waits for it to exit.
// Stopping a cache that is not running is a no-op.
func (c *Cache[V]) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cancel := c.runCancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

// sweeper periodically removes expired entries until the context is
// cancelled.
func (c *Cache[V]) sweeper(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	c.logger.Debug("sweeper started", "interval", c.cfg.SweepInterval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("sweeper stopped")
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// removeElement unlinks an entry and releases its memory accounting. The
// caller must hold c.mu.
func (c *Cache[V]) removeElement(elem *list.Element) *entry[V] {
	ent := elem.Value.(*entry[V])
	c.order.Remove(elem)
	delete(c.entries, ent.key)
	c.memoryBytes -= ent.sizeBytes
	return ent
}

// evictOldest removes the entry at the LRU end. An entry that is already
// expired counts as an expiration rather than an eviction. The caller must
// hold c.mu.
func (c *Cache[V]) evictOldest(now time.Time) {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	ent := c.removeElement(elem)
	if ent.expired(now) {
		c.expirations++
	} else {
		c.evictions++
	}
	c.logger.Debug("entry evicted",
		"key", ent.key,
		"size_bytes", ent.sizeBytes,
		"hit_count", ent.hitCount)
}

// recordOp adds a latency sample when metrics are enabled. The caller must
// hold c.mu.
func (c *Cache[V]) recordOp(name string, start time.Time) {
	if c.cfg.MetricsEnabled {
		c.recorder.Record(name, time.Since(start))
	}
}
