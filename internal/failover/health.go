package failover

import (
	"sync"
	"time"
)

// ProviderHealth is the last observed outcome for a provider. It is
// overwritten on every call attempt.
type ProviderHealth struct {
	Provider       string    `json:"provider"`
	Healthy        bool      `json:"healthy"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
	LastResponseMs int64     `json:"last_response_ms"`
	LastError      string    `json:"last_error,omitempty"`
}

// HealthTracker records per-provider health observations. Each update is a
// whole-record overwrite under the lock, so readers never see a torn record.
type HealthTracker struct {
	mu     sync.RWMutex
	byName map[string]ProviderHealth
	clock  func() time.Time
}

// NewHealthTracker creates an empty tracker.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		byName: make(map[string]ProviderHealth),
		clock:  time.Now,
	}
}

// RecordHealthy stores a successful observation with its latency.
func (t *HealthTracker) RecordHealthy(provider string, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[provider] = ProviderHealth{
		Provider:       provider,
		Healthy:        true,
		LastCheckedAt:  t.clock(),
		LastResponseMs: latency.Milliseconds(),
	}
}

// RecordUnhealthy stores a failed observation with the error message.
func (t *HealthTracker) RecordUnhealthy(provider string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[provider] = ProviderHealth{
		Provider:      provider,
		Healthy:       false,
		LastCheckedAt: t.clock(),
		LastError:     msg,
	}
}

// Get returns the last observation for a provider, if any.
func (t *HealthTracker) Get(provider string) (ProviderHealth, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byName[provider]
	return h, ok
}

// Snapshot returns a copy of all observations, for health endpoints.
func (t *HealthTracker) Snapshot() []ProviderHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ProviderHealth, 0, len(t.byName))
	for _, h := range t.byName {
		out = append(out, h)
	}
	return out
}
