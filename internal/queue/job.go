package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/vatline/vatline-api/internal/domain"
)

// JobStatus represents the current state of a processing job
type JobStatus string

// Possible job status values
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusInFlight  JobStatus = "in_flight"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// job is the queue's internal record of one submission. All fields are
// guarded by the queue mutex except id, doc, priority, and the cache keys,
// which never change after creation.
type job struct {
	id        uuid.UUID
	doc       domain.Document
	priority  int
	resultKey string
	textKey   string

	enqueuedAt  time.Time
	startedAt   time.Time
	completedAt time.Time

	status JobStatus
	result *domain.ExtractionResult
	err    error
}

// snapshot copies the job's current state. The caller must hold the queue
// mutex.
func (j *job) snapshot() JobInfo {
	return JobInfo{
		ID:          j.id,
		FileName:    j.doc.FileName,
		Category:    j.doc.Category,
		Priority:    j.priority,
		Status:      j.status,
		EnqueuedAt:  j.enqueuedAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
		Result:      j.result,
		Err:         j.err,
	}
}

// JobInfo is a point-in-time snapshot of a job's state, safe to read after
// the queue has moved on. Result is shared with the queue and must be
// treated as read-only.
type JobInfo struct {
	ID          uuid.UUID
	FileName    string
	Category    domain.DocumentCategory
	Priority    int
	Status      JobStatus
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Result      *domain.ExtractionResult
	Err         error
}

// SubmitResult is the outcome of a Submit call.
type SubmitResult struct {
	// JobID identifies the queued job. It is uuid.Nil when Hit is true.
	JobID uuid.UUID

	// Hit reports whether a live cached result satisfied the submission
	// without queueing any work.
	Hit bool

	// Result holds the cached extraction result when Hit is true.
	Result *domain.ExtractionResult
}
