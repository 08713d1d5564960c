// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and translate coded errors into JSON responses.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"personlens/internal/batch"
	"personlens/internal/correlate"
	"personlens/internal/failover"
	"personlens/internal/platform/metrics"
	"personlens/internal/providers"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
	"personlens/pkg/platform/circuit"
	"personlens/pkg/platform/sentinel"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// HeaderUserID identifies the caller. Authentication happens upstream; this
// service trusts the gateway-injected header.
const HeaderUserID = "X-User-ID"

// Searcher runs one provider search with failover.
type Searcher interface {
	Search(ctx context.Context, kind providers.SearchKind, params map[string]string) (*failover.Result, error)
}

// JobService submits and reads batch jobs.
type JobService interface {
	Submit(ctx context.Context, userID id.UserID, inputs []string) (*batch.Job, error)
	Get(ctx context.Context, jobID id.JobID) (*batch.Job, error)
}

// Enqueuer hands a submitted job to the background worker.
type Enqueuer interface {
	Enqueue(jobID id.JobID) error
}

// Handler handles all public endpoints.
type Handler struct {
	searcher   Searcher
	correlator *correlate.Engine
	jobs       JobService
	worker     Enqueuer
	health     *failover.HealthTracker
	breakers   *circuit.Registry
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// HandlerOption configures optional Handler collaborators.
type HandlerOption func(*Handler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithHealthSources wires the /healthz data sources.
func WithHealthSources(health *failover.HealthTracker, breakers *circuit.Registry) HandlerOption {
	return func(h *Handler) {
		h.health = health
		h.breakers = breakers
	}
}

// NewHandler creates the HTTP handler set.
func NewHandler(searcher Searcher, correlator *correlate.Engine, jobs JobService, worker Enqueuer, opts ...HandlerOption) (*Handler, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if correlator == nil {
		return nil, fmt.Errorf("correlator is required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("job service is required")
	}
	if worker == nil {
		return nil, fmt.Errorf("worker is required")
	}
	h := &Handler{
		searcher:   searcher,
		correlator: correlator,
		jobs:       jobs,
		worker:     worker,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// userID extracts the caller identity from the request, or fails with a
// coded error the response writer can translate.
func userID(r *http.Request) (id.UserID, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return id.UserID{}, domainerrors.New(domainerrors.CodeBadRequest,
			fmt.Sprintf("missing %s header", HeaderUserID))
	}
	uid, err := id.ParseUserID(raw)
	if err != nil {
		return id.UserID{}, domainerrors.New(domainerrors.CodeBadRequest,
			fmt.Sprintf("invalid %s header", HeaderUserID))
	}
	return uid, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation so every endpoint returns
// the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeInternal
	var de *domainerrors.Error
	switch {
	case errors.As(err, &de):
		code = de.Code
	case errors.Is(err, sentinel.ErrNotFound):
		code = domainerrors.CodeNotFound
	case errors.Is(err, sentinel.ErrConflict):
		code = domainerrors.CodeConflict
	}

	body := map[string]string{"error": string(code)}
	if de != nil && de.Message != "" {
		body["message"] = de.Message
	}
	writeJSON(w, statusFor(code), body)
}

func statusFor(code domainerrors.Code) int {
	switch code {
	case domainerrors.CodeBadRequest, domainerrors.CodeInvalidInput:
		return http.StatusBadRequest
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeConflict:
		return http.StatusConflict
	case domainerrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
