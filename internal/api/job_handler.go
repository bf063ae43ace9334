package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vatline/vatline-api/internal/api/shared"
	"github.com/vatline/vatline-api/internal/platform/logger"
	"github.com/vatline/vatline-api/internal/queue"
)

// JobLookup resolves job identifiers to job snapshots. The processing queue
// satisfies this interface.
type JobLookup interface {
	Job(id uuid.UUID) (queue.JobInfo, error)
}

// JobHandler serves read-only job status lookups. Failed jobs carry their
// error here, so a caller can inspect why a submission never produced a
// cached result.
type JobHandler struct {
	jobs   JobLookup
	logger *slog.Logger
}

// NewJobHandler creates a JobHandler over the given job source.
func NewJobHandler(jobs JobLookup, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: logger.With("component", "job_handler"),
	}
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	id, err := uuid.Parse(idParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	info, err := h.jobs.Job(id)
	if err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Debug("job lookup failed",
			"job_id", id,
			"error", err)
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(info))
}
