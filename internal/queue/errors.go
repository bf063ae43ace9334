package queue

import "errors"

// Common errors returned by the ProcessingQueue
var (
	// ErrQueueClosed is returned when submitting to a queue that has been shut down
	ErrQueueClosed = errors.New("processing queue is closed")

	// ErrJobNotFound is returned when looking up an unknown job id
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTimeout is attached to jobs that did not resolve within the job timeout
	ErrJobTimeout = errors.New("job timed out")

	// ErrWorkerPanic is attached to jobs whose extraction panicked
	ErrWorkerPanic = errors.New("panic during extraction")
)
