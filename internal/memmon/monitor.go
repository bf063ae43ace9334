package memmon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultShrinkFraction is the fraction of entries each shrinker is asked
// to release when pressure persists after compaction.
const DefaultShrinkFraction = 0.25

// Validation errors returned when constructing a Monitor
var (
	// ErrInvalidThreshold is returned when the memory threshold is not positive
	ErrInvalidThreshold = errors.New("memory threshold must be positive")

	// ErrInvalidInterval is returned when the check interval is not positive
	ErrInvalidInterval = errors.New("check interval must be positive")
)

// Shrinker releases part of a component's memory on demand. The caches in
// this application satisfy it.
type Shrinker interface {
	// Name identifies the shrinker in log lines.
	Name() string

	// EvictFraction releases roughly the given fraction of held entries
	// and reports how many were released.
	EvictFraction(fraction float64) int
}

// Config holds the settings for a Monitor.
type Config struct {
	// ThresholdBytes is the heap usage above which the monitor reacts.
	ThresholdBytes int64

	// Interval is how often the background loop samples heap usage.
	Interval time.Duration

	// ShrinkFraction is the fraction of entries each shrinker releases
	// under sustained pressure. Values outside (0, 1] are replaced with
	// DefaultShrinkFraction.
	ShrinkFraction float64
}

// Validate checks that the configuration is usable.
func (cfg Config) Validate() error {
	if cfg.ThresholdBytes <= 0 {
		return ErrInvalidThreshold
	}
	if cfg.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// Stats is a point-in-time view of monitor activity.
type Stats struct {
	// CurrentBytes is the heap usage at the time Stats was called.
	CurrentBytes uint64 `json:"current_bytes"`

	// ThresholdBytes is the configured pressure threshold.
	ThresholdBytes int64 `json:"threshold_bytes"`

	// Checks is the number of pressure checks run so far.
	Checks uint64 `json:"checks"`

	// PressureEvents is the number of checks that found usage above
	// the threshold.
	PressureEvents uint64 `json:"pressure_events"`

	// LastCheckAt is when the most recent check ran. Zero if none ran yet.
	LastCheckAt time.Time `json:"last_check_at"`
}

// Monitor samples heap usage and coordinates pressure relief across
// registered shrinkers. Use New to create one.
type Monitor struct {
	mu        sync.Mutex
	cfg       Config
	logger    *slog.Logger
	sampler   func() uint64
	compact   func()
	shrinkers []Shrinker

	checks         uint64
	pressureEvents uint64
	lastCheckAt    time.Time

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	started   bool
}

// New creates a memory monitor with the given configuration. The sampler
// defaults to runtime heap usage and the compaction hint defaults to
// returning freed memory to the OS; both can be replaced with SetSampler
// and SetCompactionHint before Start.
func New(cfg Config, logger *slog.Logger) (*Monitor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	log := logger.With("component", "memory_monitor")

	if cfg.ShrinkFraction <= 0 || cfg.ShrinkFraction > 1 {
		log.Warn("invalid shrink fraction, using default",
			"requested_fraction", cfg.ShrinkFraction,
			"default_fraction", DefaultShrinkFraction)
		cfg.ShrinkFraction = DefaultShrinkFraction
	}

	return &Monitor{
		cfg:     cfg,
		logger:  log,
		sampler: heapUsage,
		compact: debug.FreeOSMemory,
	}, nil
}

// SetSampler replaces the heap usage sampler. Primarily used in tests.
func (m *Monitor) SetSampler(sampler func() uint64) {
	if sampler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampler = sampler
}

// SetCompactionHint replaces the compaction hint run before shrinking.
// Passing nil installs a no-op hint.
func (m *Monitor) SetCompactionHint(hint func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hint == nil {
		hint = func() {}
	}
	m.compact = hint
}

// Register adds a shrinker to the set consulted under sustained pressure.
// Shrinkers are invoked in registration order.
func (m *Monitor) Register(s Shrinker) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shrinkers = append(m.shrinkers, s)
}

// Check runs one pressure check against the configured threshold and
// reports whether pressure was detected.
func (m *Monitor) Check() bool {
	return m.CheckThreshold(m.cfg.ThresholdBytes)
}

// CheckThreshold runs one pressure check against an explicit ceiling. The
// processing queue uses it before dispatching a batch, with the queue's own
// memory budget as the ceiling. It never returns an error and never blocks
// beyond the work of the check itself.
func (m *Monitor) CheckThreshold(thresholdBytes int64) bool {
	m.mu.Lock()
	sampler := m.sampler
	compact := m.compact
	fraction := m.cfg.ShrinkFraction
	threshold := uint64(thresholdBytes)
	shrinkers := make([]Shrinker, len(m.shrinkers))
	copy(shrinkers, m.shrinkers)

	m.checks++
	m.lastCheckAt = time.Now()
	m.mu.Unlock()

	usage := sampler()
	if usage <= threshold {
		return false
	}

	m.mu.Lock()
	m.pressureEvents++
	m.mu.Unlock()

	m.logger.Warn("memory usage above threshold",
		"usage_bytes", usage,
		"threshold_bytes", threshold)

	compact()

	// Compaction may already have returned enough memory.
	usage = sampler()
	if usage <= threshold {
		m.logger.Info("memory pressure relieved by compaction",
			"usage_bytes", usage,
			"threshold_bytes", threshold)
		return true
	}

	for _, s := range shrinkers {
		evicted := s.EvictFraction(fraction)
		m.logger.Info("shrank component under memory pressure",
			"shrinker", s.Name(),
			"fraction", fraction,
			"evicted_count", evicted)
	}

	return true
}

// Stats returns a snapshot of monitor activity, including a fresh heap
// usage sample.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	sampler := m.sampler
	stats := Stats{
		ThresholdBytes: m.cfg.ThresholdBytes,
		Checks:         m.checks,
		PressureEvents: m.pressureEvents,
		LastCheckAt:    m.lastCheckAt,
	}
	m.mu.Unlock()

	stats.CurrentBytes = sampler()
	return stats
}

// Start launches the background check loop. It returns an error if the
// monitor is already running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("memory monitor already started")
	}

	m.runCtx, m.runCancel = context.WithCancel(context.Background())
	m.started = true

	m.wg.Add(1)
	go m.loop(m.runCtx)

	m.logger.Info("memory monitor started",
		"threshold_bytes", m.cfg.ThresholdBytes,
		"check_interval", m.cfg.Interval)

	return nil
}

// Stop terminates the background loop and waits for it to exit. It is a
// no-op if the monitor is not running, and the monitor can be started
// again afterwards.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel := m.runCancel
	m.started = false
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	m.logger.Info("memory monitor stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

func heapUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}
