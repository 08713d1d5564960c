package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"personlens/internal/platform/middleware"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
)

type submitJobRequest struct {
	Inputs []string `json:"inputs"`
}

type submitJobResponse struct {
	JobID string `json:"jobId"`
}

// handleSubmitJob persists a new batch job and hands it to the worker.
func (h *Handler) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	job, err := h.jobs.Submit(ctx, uid, req.Inputs)
	if err != nil {
		if !domainerrors.Is(err, domainerrors.CodeInvalidInput) && !domainerrors.Is(err, domainerrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "job submission failed",
				slog.String("request_id", middleware.GetRequestID(ctx)),
				slog.Any("error", err))
		}
		writeError(w, err)
		return
	}

	if err := h.worker.Enqueue(job.ID); err != nil {
		// The job row exists but will never run; surface the overload
		// instead of returning a job that stays PENDING forever.
		h.logger.ErrorContext(ctx, "job enqueue failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
		writeError(w, domainerrors.New(domainerrors.CodeUnavailable, "job queue is full"))
		return
	}

	writeJSON(w, http.StatusAccepted, submitJobResponse{JobID: job.ID.String()})
}

// handleGetJob returns the persisted state of a job, including per-item
// results once processing has reached them.
func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid job ID"))
		return
	}

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
