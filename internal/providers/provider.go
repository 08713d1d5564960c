// Package providers defines the contract for external identity-data sources
// and the registry the failover orchestrator consults. Providers are agnostic
// to payload shape; shape tolerance lives in the correlation engine.
package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// SearchKind identifies what the caller is searching by.
type SearchKind string

const (
	KindEmail   SearchKind = "email"
	KindPhone   SearchKind = "phone"
	KindName    SearchKind = "name"
	KindAddress SearchKind = "address"
)

// Valid reports whether the kind is one the provider contract defines.
func (k SearchKind) Valid() bool {
	switch k {
	case KindEmail, KindPhone, KindName, KindAddress:
		return true
	}
	return false
}

// Payload is a raw provider answer. Providers return whatever their upstream
// emits; normalization and merging happen downstream.
type Payload map[string]any

// Provider is the universal interface all identity-data sources implement.
type Provider interface {
	// Name returns a unique identifier for this provider instance.
	Name() string

	// Priority orders failover attempts; lower values are tried first.
	Priority() int

	// Search performs a lookup by kind. The params map carries the search
	// input under the kind's key (e.g. params["email"]) plus any
	// provider-specific options.
	Search(ctx context.Context, kind SearchKind, params map[string]string) (Payload, error)

	// CheckHealth probes provider availability.
	CheckHealth(ctx context.Context) error
}

// Registry maintains the registered providers in priority order. It is
// populated at startup and immutable afterwards from the orchestrator's
// perspective.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Duplicate names are rejected.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// InPriorityOrder returns all providers sorted by ascending priority. Ties
// break on name so the order is deterministic.
func (r *Registry) InPriorityOrder() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
