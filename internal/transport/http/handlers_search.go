package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"personlens/internal/batch"
	"personlens/internal/correlate"
	"personlens/internal/failover"
	"personlens/internal/platform/middleware"
	"personlens/internal/providers"
	"personlens/pkg/domainerrors"
)

type searchRequest struct {
	Query string `json:"query"`
	// Kind forces the search type. Empty means classify from the query shape.
	Kind string `json:"kind,omitempty"`
}

type searchResponse struct {
	Provider string                      `json:"provider"`
	Result   correlate.CorrelationResult `json:"result"`
}

// handleSearch runs one synchronous search through provider failover and
// returns the correlated profile.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "query is required"))
		return
	}

	kind := providers.SearchKind(req.Kind)
	if req.Kind == "" {
		kind = batch.ClassifyInput(query)
	} else if !kind.Valid() {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "unknown search kind"))
		return
	}

	found, err := h.searcher.Search(ctx, kind, batch.SearchParams(kind, query))
	if err != nil {
		if searchNotFound(err) {
			writeError(w, domainerrors.New(domainerrors.CodeNotFound, "no records found"))
			return
		}
		h.logger.ErrorContext(ctx, "search failed",
			slog.String("kind", string(kind)),
			slog.String("request_id", middleware.GetRequestID(ctx)),
			slog.Any("error", err))
		if failover.IsAllFailed(err) {
			writeError(w, domainerrors.New(domainerrors.CodeUnavailable, "all providers unavailable"))
			return
		}
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "search failed"))
		return
	}

	result := h.correlator.Correlate([]correlate.Source{found.Data})
	writeJSON(w, http.StatusOK, searchResponse{
		Provider: found.Provider,
		Result:   result,
	})
}

// searchNotFound reports whether the failure means the person simply is not
// in any provider, as opposed to providers being unreachable.
func searchNotFound(err error) bool {
	if providers.IsNotFound(err) {
		return true
	}
	var all *failover.AllFailedError
	if !errors.As(err, &all) {
		return false
	}
	for _, cause := range all.Errors {
		if providers.IsNotFound(cause) {
			return true
		}
	}
	return false
}
