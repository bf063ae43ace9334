// Package queue implements the priority batch queue that feeds documents
// to the extractor.
//
// Submissions are short-circuited against the extraction result cache
// before any work is queued. Pending jobs are kept in priority order,
// highest first with FIFO ties, and are drawn into batches either when
// enough jobs accumulate or when the batch window elapses. A batch runs
// across a fixed pool of extraction workers, or one job at a time when
// parallelism is disabled. Completed results are written back to the
// result and raw text caches under the document's content keys.
//
// One dispatch runs at a time. Queue bookkeeping (submission, ordering,
// batch draw, job state) is serialized by the queue's mutex; only the
// extraction calls themselves run concurrently.
package queue
