package bench

import (
	"sync"
	"time"
)

// DefaultMaxSamples is the number of samples retained per name when no
// explicit limit is configured.
const DefaultMaxSamples = 100

// Recorder collects named duration samples and reports rolling averages.
// Each name keeps at most maxSamples recent values in a ring buffer; older
// samples are overwritten in arrival order.
//
// All methods are safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	maxSamples int
	series     map[string]*series
	starts     map[string]time.Time
	now        func() time.Time
}

// series is a fixed-capacity ring of duration samples.
type series struct {
	samples []time.Duration
	next    int
}

func (s *series) add(d time.Duration, capacity int) {
	if len(s.samples) < capacity {
		s.samples = append(s.samples, d)
		return
	}
	s.samples[s.next] = d
	s.next = (s.next + 1) % capacity
}

// NewRecorder creates a Recorder that retains up to maxSamples values per
// name. A non-positive maxSamples falls back to DefaultMaxSamples.
func NewRecorder(maxSamples int) *Recorder {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Recorder{
		maxSamples: maxSamples,
		series:     make(map[string]*series),
		starts:     make(map[string]time.Time),
		now:        time.Now,
	}
}

// Start marks the beginning of a timed section for name. A second Start for
// the same name before its End replaces the earlier mark.
func (r *Recorder) Start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.starts[name] = r.now()
}

// End closes the section opened by Start and records the elapsed duration.
// It reports false when no matching Start exists.
func (r *Recorder) End(name string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start, ok := r.starts[name]
	if !ok {
		return 0, false
	}
	delete(r.starts, name)

	d := r.now().Sub(start)
	r.record(name, d)
	return d, true
}

// Record adds an externally measured duration sample for name.
func (r *Recorder) Record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(name, d)
}

func (r *Recorder) record(name string, d time.Duration) {
	s, ok := r.series[name]
	if !ok {
		s = &series{samples: make([]time.Duration, 0, r.maxSamples)}
		r.series[name] = s
	}
	s.add(d, r.maxSamples)
}

// Average returns the mean over the retained samples for name, or zero when
// nothing has been recorded under that name.
func (r *Recorder) Average(name string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[name]
	if !ok || len(s.samples) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range s.samples {
		total += d
	}
	return total / time.Duration(len(s.samples))
}

// Count returns how many samples are currently retained for name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[name]
	if !ok {
		return 0
	}
	return len(s.samples)
}

// Snapshot returns the current average for every name with at least one
// retained sample.
func (r *Recorder) Snapshot() map[string]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]time.Duration, len(r.series))
	for name, s := range r.series {
		if len(s.samples) == 0 {
			continue
		}
		var total time.Duration
		for _, d := range s.samples {
			total += d
		}
		out[name] = total / time.Duration(len(s.samples))
	}
	return out
}

// Reset discards all retained samples and any open start marks.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.series = make(map[string]*series)
	r.starts = make(map[string]time.Time)
}
