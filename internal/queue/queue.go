package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vatline/vatline-api/internal/bench"
	"github.com/vatline/vatline-api/internal/cache"
	"github.com/vatline/vatline-api/internal/doccache"
	"github.com/vatline/vatline-api/internal/domain"
	"github.com/vatline/vatline-api/internal/extraction"
)

// Default configuration values applied when a Config field is zero or
// negative.
const (
	DefaultMaxBatchSize        = 5
	DefaultMaxWaitTime         = 2 * time.Second
	DefaultMaxQueueMemoryBytes = 512 << 20
	DefaultWorkerCount         = 4
	DefaultJobTimeout          = 30 * time.Second
)

// throughputWindow is the trailing window over which completions are
// counted for the throughput stat.
const throughputWindow = time.Minute

// opExtract names the benchmark timer for extraction work.
const opExtract = "queue_extract"

// MemoryChecker relieves memory pressure before a batch is dispatched.
// The memory monitor satisfies this interface.
type MemoryChecker interface {
	// CheckThreshold samples process memory against the given ceiling and
	// relieves pressure if exceeded. It reports whether pressure was found.
	CheckThreshold(thresholdBytes int64) bool
}

// Config holds the settings for a ProcessingQueue.
type Config struct {
	// MaxBatchSize is the maximum number of jobs drawn per dispatch.
	// Reaching this many pending jobs triggers an immediate dispatch.
	MaxBatchSize int

	// MaxWaitTime is the period of the dispatch timer. When it fires and
	// jobs are pending, a partial batch is dispatched.
	MaxWaitTime time.Duration

	// MaxQueueMemoryBytes is the process memory ceiling checked before
	// each dispatch.
	MaxQueueMemoryBytes int64

	// ParallelismEnabled selects worker-pool dispatch for batches larger
	// than one job. When false, batches run one job at a time.
	ParallelismEnabled bool

	// WorkerCount is the fixed number of extraction workers started with
	// the queue. Workers are created once and reused across batches.
	WorkerCount int

	// JobTimeout bounds how long a dispatched job may run before it is
	// resolved as failed.
	JobTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:        DefaultMaxBatchSize,
		MaxWaitTime:         DefaultMaxWaitTime,
		MaxQueueMemoryBytes: DefaultMaxQueueMemoryBytes,
		ParallelismEnabled:  true,
		WorkerCount:         DefaultWorkerCount,
		JobTimeout:          DefaultJobTimeout,
	}
}

// Stats is a point-in-time view of queue activity.
type Stats struct {
	// PendingJobs is the number of jobs waiting to be dispatched.
	PendingJobs int `json:"pending_jobs"`

	// InFlightJobs is the number of jobs currently being processed.
	InFlightJobs int `json:"in_flight_jobs"`

	// TotalJobs is the cumulative number of jobs enqueued. Cache
	// short-circuits are not counted here.
	TotalJobs uint64 `json:"total_jobs"`

	// CompletedJobs is the cumulative number of successfully completed jobs.
	CompletedJobs uint64 `json:"completed_jobs"`

	// FailedJobs is the cumulative number of failed jobs, including timeouts.
	FailedJobs uint64 `json:"failed_jobs"`

	// ShortCircuits is the cumulative number of submissions satisfied
	// directly from the result cache.
	ShortCircuits uint64 `json:"short_circuits"`

	// SuccessRate is CompletedJobs over all resolved jobs. Zero when no
	// job has resolved yet.
	SuccessRate float64 `json:"success_rate"`

	// AvgProcessingTime is the mean extraction duration over the recent
	// sample window.
	AvgProcessingTime time.Duration `json:"avg_processing_time_ns"`

	// CompletedLastMinute is the number of completions within the trailing
	// minute.
	CompletedLastMinute int `json:"completed_last_minute"`

	// Workers is the size of the extraction worker pool.
	Workers int `json:"workers"`
}

// workItem is the unit handed from the dispatcher to a worker.
type workItem struct {
	job      *job
	ctx      context.Context
	resultCh chan<- jobOutcome
}

// jobOutcome is the result a worker hands back to the dispatcher.
type jobOutcome struct {
	job     *job
	result  *domain.ExtractionResult
	err     error
	elapsed time.Duration
}

// ProcessingQueue batches, prioritizes, and runs document extraction work.
// Use NewProcessingQueue to create one, Start to begin dispatching, and
// Shutdown to stop. A queue cannot be restarted after Shutdown.
type ProcessingQueue struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger

	results   *cache.Cache[domain.ExtractionResult]
	texts     *cache.Cache[string]
	extractor extraction.Extractor
	checker   MemoryChecker

	now      func() time.Time
	recorder *bench.Recorder

	pending     []*job
	jobs        map[uuid.UUID]*job
	inFlight    int
	dispatching bool

	totalJobs     uint64
	completedJobs uint64
	failedJobs    uint64
	shortCircuits uint64
	completions   []time.Time

	workerChans []chan *workItem

	dispatchCh chan struct{}

	runCtx       context.Context
	runCancel    context.CancelFunc
	workerCtx    context.Context
	workerCancel context.CancelFunc
	dispatchWG   sync.WaitGroup
	workerWG     sync.WaitGroup
	started      bool
	closed       bool
}

// NewProcessingQueue creates a queue that checks the given caches before
// queueing work and writes completed results back to them. The checker is
// consulted before each dispatch; a nil checker skips the memory check.
func NewProcessingQueue(
	cfg Config,
	results *cache.Cache[domain.ExtractionResult],
	texts *cache.Cache[string],
	extractor extraction.Extractor,
	checker MemoryChecker,
	logger *slog.Logger,
) (*ProcessingQueue, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if results == nil {
		return nil, fmt.Errorf("results cache cannot be nil")
	}
	if texts == nil {
		return nil, fmt.Errorf("text cache cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}

	log := logger.With("component", "processing_queue")

	// Apply defaults for invalid config values
	if cfg.MaxBatchSize <= 0 {
		log.Warn("invalid max batch size specified, using default",
			"specified_size", cfg.MaxBatchSize,
			"default_size", DefaultMaxBatchSize)
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MaxWaitTime <= 0 {
		log.Warn("invalid max wait time specified, using default",
			"specified_wait", cfg.MaxWaitTime,
			"default_wait", DefaultMaxWaitTime)
		cfg.MaxWaitTime = DefaultMaxWaitTime
	}
	if cfg.MaxQueueMemoryBytes <= 0 {
		log.Warn("invalid queue memory ceiling specified, using default",
			"specified_bytes", cfg.MaxQueueMemoryBytes,
			"default_bytes", int64(DefaultMaxQueueMemoryBytes))
		cfg.MaxQueueMemoryBytes = DefaultMaxQueueMemoryBytes
	}
	if cfg.WorkerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", DefaultWorkerCount)
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.JobTimeout <= 0 {
		log.Warn("invalid job timeout specified, using default",
			"specified_timeout", cfg.JobTimeout,
			"default_timeout", DefaultJobTimeout)
		cfg.JobTimeout = DefaultJobTimeout
	}

	return &ProcessingQueue{
		cfg:        cfg,
		logger:     log,
		results:    results,
		texts:      texts,
		extractor:  extractor,
		checker:    checker,
		now:        time.Now,
		recorder:   bench.NewRecorder(0),
		jobs:       make(map[uuid.UUID]*job),
		dispatchCh: make(chan struct{}, 1),
	}, nil
}

// Submit checks the result cache for the document and either returns the
// cached result directly or enqueues a new job. Higher priorities are
// dispatched sooner; equal priorities keep submission order. After
// Shutdown, Submit returns ErrQueueClosed.
func (p *ProcessingQueue) Submit(doc domain.Document, priority int) (SubmitResult, error) {
	if err := doc.Validate(); err != nil {
		return SubmitResult{}, fmt.Errorf("invalid document: %w", err)
	}

	resultKey := doccache.ResultKey(doc)
	textKey := doccache.TextKey(doc)

	// Cache short-circuit: a live cached result satisfies the submission
	// without creating a pending entry.
	if cached, ok := p.results.Get(resultKey); ok {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return SubmitResult{}, ErrQueueClosed
		}
		p.shortCircuits++
		p.mu.Unlock()

		p.logger.Debug("submission satisfied from cache",
			"file_name", doc.FileName,
			"result_key", resultKey)

		result := cached
		return SubmitResult{Hit: true, Result: &result}, nil
	}

	j := &job{
		id:        uuid.New(),
		doc:       doc,
		priority:  priority,
		resultKey: resultKey,
		textKey:   textKey,
		status:    JobStatusPending,
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return SubmitResult{}, ErrQueueClosed
	}
	j.enqueuedAt = p.now()
	p.jobs[j.id] = j
	p.pending = append(p.pending, j)
	sort.SliceStable(p.pending, func(a, b int) bool {
		return p.pending[a].priority > p.pending[b].priority
	})
	p.totalJobs++
	pendingLen := len(p.pending)
	p.mu.Unlock()

	p.logger.Debug("job enqueued",
		"job_id", j.id,
		"file_name", doc.FileName,
		"priority", priority,
		"pending_count", pendingLen)

	if pendingLen >= p.cfg.MaxBatchSize {
		p.signalDispatch()
	}

	return SubmitResult{JobID: j.id}, nil
}

// Job returns a snapshot of the job with the given id, including its
// result or error once resolved.
func (p *ProcessingQueue) Job(id uuid.UUID) (JobInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	j, ok := p.jobs[id]
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// CachedResult returns the cached extraction result for a document, if a
// live one exists.
func (p *ProcessingQueue) CachedResult(doc domain.Document) (domain.ExtractionResult, bool) {
	return p.results.Get(doccache.ResultKey(doc))
}

// CachedText returns the cached raw text for a document, if a live entry
// exists.
func (p *ProcessingQueue) CachedText(doc domain.Document) (string, bool) {
	return p.texts.Get(doccache.TextKey(doc))
}

// Stats returns a snapshot of queue activity.
func (p *ProcessingQueue) Stats() Stats {
	avg := p.recorder.Average(opExtract)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pruneCompletionsLocked(p.now())

	resolved := p.completedJobs + p.failedJobs
	var successRate float64
	if resolved > 0 {
		successRate = float64(p.completedJobs) / float64(resolved)
	}

	return Stats{
		PendingJobs:         len(p.pending),
		InFlightJobs:        p.inFlight,
		TotalJobs:           p.totalJobs,
		CompletedJobs:       p.completedJobs,
		FailedJobs:          p.failedJobs,
		ShortCircuits:       p.shortCircuits,
		SuccessRate:         successRate,
		AvgProcessingTime:   avg,
		CompletedLastMinute: len(p.completions),
		Workers:             p.cfg.WorkerCount,
	}
}

// Start launches the dispatch loop and the extraction workers. It returns
// an error if the queue is already running or has been shut down.
func (p *ProcessingQueue) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrQueueClosed
	}
	if p.started {
		return fmt.Errorf("processing queue already started")
	}

	p.runCtx, p.runCancel = context.WithCancel(context.Background())
	p.workerCtx, p.workerCancel = context.WithCancel(context.Background())
	p.started = true

	if p.cfg.ParallelismEnabled {
		p.workerChans = make([]chan *workItem, p.cfg.WorkerCount)
		for i := range p.workerChans {
			p.workerChans[i] = make(chan *workItem, p.cfg.MaxBatchSize)
			p.workerWG.Add(1)
			go p.worker(p.workerCtx, i, p.workerChans[i])
		}
	}

	p.dispatchWG.Add(1)
	go p.dispatcher(p.runCtx)

	p.logger.Info("processing queue started",
		"max_batch_size", p.cfg.MaxBatchSize,
		"max_wait_time", p.cfg.MaxWaitTime,
		"parallelism_enabled", p.cfg.ParallelismEnabled,
		"worker_count", p.cfg.WorkerCount,
		"job_timeout", p.cfg.JobTimeout)

	return nil
}

// Shutdown stops the dispatch timer, waits for the in-flight batch to
// resolve, then terminates the workers. Pending jobs that were never
// dispatched are left unprocessed. Shutdown is idempotent, and results
// already written to the caches are kept.
func (p *ProcessingQueue) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	if started {
		p.runCancel()
		p.dispatchWG.Wait()
		p.workerCancel()
		p.workerWG.Wait()
	}

	p.mu.Lock()
	completed := p.completedJobs
	failed := p.failedJobs
	pending := len(p.pending)
	p.mu.Unlock()

	p.logger.Info("processing queue stopped",
		"completed_jobs", completed,
		"failed_jobs", failed,
		"pending_jobs", pending)
}

// signalDispatch wakes the dispatcher without blocking. A signal already
// in flight is enough.
func (p *ProcessingQueue) signalDispatch() {
	select {
	case p.dispatchCh <- struct{}{}:
	default:
	}
}

// dispatcher runs dispatches until the queue is shut down. A dispatch is
// triggered either by the batch window timer or by a signal that the
// pending queue reached the batch size.
func (p *ProcessingQueue) dispatcher(ctx context.Context) {
	defer p.dispatchWG.Done()

	ticker := time.NewTicker(p.cfg.MaxWaitTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.dispatch()
		case <-p.dispatchCh:
			p.dispatch()
		}
	}
}

// dispatch draws one batch from the head of the pending queue and runs it.
// It is a no-op when a dispatch is already in flight or nothing is pending.
func (p *ProcessingQueue) dispatch() {
	p.mu.Lock()
	if p.dispatching || len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	p.dispatching = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.dispatching = false
		backlog := len(p.pending)
		p.mu.Unlock()

		// Keep draining a backlog that already fills the next batch.
		if backlog >= p.cfg.MaxBatchSize {
			p.signalDispatch()
		}
	}()

	// Relieve memory pressure before feeding more work into the process.
	if p.checker != nil {
		p.checker.CheckThreshold(p.cfg.MaxQueueMemoryBytes)
	}

	p.mu.Lock()
	n := p.cfg.MaxBatchSize
	if n > len(p.pending) {
		n = len(p.pending)
	}
	batch := make([]*job, n)
	copy(batch, p.pending[:n])
	p.pending = append(p.pending[:0], p.pending[n:]...)

	started := p.now()
	for _, j := range batch {
		j.status = JobStatusInFlight
		j.startedAt = started
	}
	p.inFlight += n
	p.mu.Unlock()

	parallel := p.cfg.ParallelismEnabled && n > 1
	p.logger.Info("dispatching batch",
		"batch_size", n,
		"parallel", parallel)

	if parallel {
		p.runBatchParallel(batch)
	} else {
		p.runBatchSequential(batch)
	}
}

// runBatchSequential processes the batch one job at a time on the dispatch
// goroutine.
func (p *ProcessingQueue) runBatchSequential(batch []*job) {
	for _, j := range batch {
		jobCtx, cancel := context.WithTimeout(context.Background(), p.cfg.JobTimeout)
		start := time.Now()
		result, err := p.runExtraction(jobCtx, j)
		cancel()

		p.finalizeOutcome(jobOutcome{
			job:     j,
			result:  result,
			err:     err,
			elapsed: time.Since(start),
		})
	}
}

// runBatchParallel assigns the batch round-robin across the worker pool
// and collects outcomes until all jobs resolve or the job timeout elapses.
// Jobs still unresolved when the deadline hits are failed with a timeout
// error; their late results, if any, are discarded.
func (p *ProcessingQueue) runBatchParallel(batch []*job) {
	// The batch context is deliberately detached from the queue lifecycle
	// so a shutdown drains in-flight work instead of killing it.
	batchCtx, cancel := context.WithTimeout(context.Background(), p.cfg.JobTimeout)
	defer cancel()

	resultCh := make(chan jobOutcome, len(batch))

	next := 0
	for _, j := range batch {
		item := &workItem{job: j, ctx: batchCtx, resultCh: resultCh}

		// Round-robin across workers, skipping any whose buffer is full.
		assigned := false
		for tries := 0; tries < len(p.workerChans); tries++ {
			w := (next + tries) % len(p.workerChans)
			select {
			case p.workerChans[w] <- item:
				next = (w + 1) % len(p.workerChans)
				assigned = true
			default:
			}
			if assigned {
				break
			}
		}

		// Every worker is backlogged; run the job on this goroutine so
		// the batch still makes progress.
		if !assigned {
			p.logger.Warn("all workers backlogged, running job inline",
				"job_id", j.id)
			start := time.Now()
			result, err := p.runExtraction(batchCtx, j)
			resultCh <- jobOutcome{
				job:     j,
				result:  result,
				err:     err,
				elapsed: time.Since(start),
			}
		}
	}

	received := make(map[uuid.UUID]bool, len(batch))
	remaining := len(batch)
	timedOut := false

	deadline := time.NewTimer(p.cfg.JobTimeout)
	defer deadline.Stop()

	for remaining > 0 && !timedOut {
		select {
		case out := <-resultCh:
			p.finalizeOutcome(out)
			received[out.job.id] = true
			remaining--
		case <-deadline.C:
			timedOut = true
		}
	}

	if !timedOut {
		return
	}

	// Collect outcomes that were already buffered when the deadline hit
	// before failing the rest.
drain:
	for remaining > 0 {
		select {
		case out := <-resultCh:
			p.finalizeOutcome(out)
			received[out.job.id] = true
			remaining--
		default:
			break drain
		}
	}

	p.failUnfinished(batch, received)
}

// worker consumes items from its channel until the queue shuts down.
func (p *ProcessingQueue) worker(ctx context.Context, id int, items <-chan *workItem) {
	defer p.workerWG.Done()

	p.logger.Debug("starting extraction worker", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("stopping extraction worker", "worker_id", id)
			return
		case item := <-items:
			start := time.Now()
			result, err := p.runExtraction(item.ctx, item.job)

			// The channel is buffered for the whole batch, so a late
			// send never blocks even if the collector has moved on.
			item.resultCh <- jobOutcome{
				job:     item.job,
				result:  result,
				err:     err,
				elapsed: time.Since(start),
			}
		}
	}
}

// runExtraction invokes the extractor, converting panics into job errors
// so a misbehaving extraction cannot kill a worker.
func (p *ProcessingQueue) runExtraction(
	ctx context.Context,
	j *job,
) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
			p.logger.Error("recovered panic during extraction",
				"job_id", j.id,
				"file_name", j.doc.FileName,
				"panic", r)
		}
	}()

	return p.extractor.ExtractDocument(ctx, j.doc)
}

// finalizeOutcome resolves one job and, on success, writes its result to
// the caches. Outcomes for jobs already resolved by a timeout are dropped.
func (p *ProcessingQueue) finalizeOutcome(out jobOutcome) {
	j := out.job
	err := out.err
	if err == nil && out.result == nil {
		err = fmt.Errorf("%w: extractor returned no result", extraction.ErrInvalidResponse)
	}

	p.recorder.Record(opExtract, out.elapsed)

	now := p.now()

	p.mu.Lock()
	if j.status != JobStatusInFlight {
		p.mu.Unlock()
		p.logger.Debug("discarding late result",
			"job_id", j.id,
			"status", j.status)
		return
	}
	p.inFlight--
	j.completedAt = now

	if err != nil {
		j.status = JobStatusFailed
		j.err = err
		p.failedJobs++
		p.mu.Unlock()

		p.logger.Warn("job failed",
			"job_id", j.id,
			"file_name", j.doc.FileName,
			"error", err)
		return
	}

	j.status = JobStatusCompleted
	j.result = out.result
	p.completedJobs++
	p.completions = append(p.completions, now)
	p.pruneCompletionsLocked(now)
	p.mu.Unlock()

	p.results.Set(j.resultKey, *out.result)
	p.texts.Set(j.textKey, out.result.RawText())

	p.logger.Info("job completed",
		"job_id", j.id,
		"file_name", j.doc.FileName,
		"duration", out.elapsed)
}

// failUnfinished resolves every batch job that has not reported back as
// failed with a timeout error.
func (p *ProcessingQueue) failUnfinished(batch []*job, received map[uuid.UUID]bool) {
	timeoutErr := fmt.Errorf("%w after %s", ErrJobTimeout, p.cfg.JobTimeout)
	now := p.now()

	var failed int
	p.mu.Lock()
	for _, j := range batch {
		if received[j.id] || j.status != JobStatusInFlight {
			continue
		}
		j.status = JobStatusFailed
		j.err = timeoutErr
		j.completedAt = now
		p.failedJobs++
		p.inFlight--
		failed++
	}
	p.mu.Unlock()

	if failed > 0 {
		p.logger.Warn("jobs timed out in batch",
			"timed_out_count", failed,
			"job_timeout", p.cfg.JobTimeout)
	}
}

// pruneCompletionsLocked drops completion timestamps older than the
// throughput window. The caller must hold the queue mutex.
func (p *ProcessingQueue) pruneCompletionsLocked(now time.Time) {
	cutoff := now.Add(-throughputWindow)
	i := 0
	for i < len(p.completions) && p.completions[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		p.completions = append(p.completions[:0], p.completions[i:]...)
	}
}
