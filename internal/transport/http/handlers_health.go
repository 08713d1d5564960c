package httptransport

import (
	"net/http"

	"personlens/internal/failover"
	"personlens/pkg/platform/circuit"
)

type healthResponse struct {
	Status    string                    `json:"status"`
	Providers []failover.ProviderHealth `json:"providers"`
	Breakers  []circuit.Snapshot        `json:"breakers"`
}

// handleHealth reports the last observed provider health and every breaker's
// state. The endpoint itself is always 200; degraded providers are visible
// in the body.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.health != nil {
		resp.Providers = h.health.Snapshot()
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.Snapshots()
	}
	writeJSON(w, http.StatusOK, resp)
}
