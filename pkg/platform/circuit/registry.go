package circuit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrOpen is returned by Execute when the breaker blocks the call. Callers
// that want failover treat it as "skip this service"; callers that want a
// default value pass a fallback.
var ErrOpen = errors.New("circuit open")

// StateChangeHook observes breaker transitions, typically for logging and
// metrics. Hooks must not block; they are invoked inline on the recording
// goroutine.
type StateChangeHook func(name string, from, to State)

// Registry holds one breaker per service name, created lazily. Breakers are
// individually locked, so concurrent record operations for different services
// never contend.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	opts     []Option
	hook     StateChangeHook
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBreakerOptions sets the options applied to every lazily created breaker.
func WithBreakerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.opts = opts
	}
}

// WithStateChangeHook registers a transition observer.
func WithStateChangeHook(hook StateChangeHook) RegistryOption {
	return func(r *Registry) {
		r.hook = hook
	}
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{breakers: make(map[string]*Breaker)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the breaker for a service, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring the write lock.
	if b, ok = r.breakers[name]; ok {
		return b
	}
	b = New(name, r.opts...)
	r.breakers[name] = b
	return b
}

// IsOpen reports whether the named service's breaker currently blocks calls.
func (r *Registry) IsOpen(name string) bool {
	return r.Get(name).IsOpen()
}

// RecordSuccess forwards to the named breaker and notifies the hook on
// transition.
func (r *Registry) RecordSuccess(name string) {
	r.notify(name, r.Get(name).RecordSuccess())
}

// RecordFailure forwards to the named breaker and notifies the hook on
// transition.
func (r *Registry) RecordFailure(name string) {
	r.notify(name, r.Get(name).RecordFailure())
}

// Execute runs fn through the named breaker. If the breaker is open the call
// is blocked and ErrOpen is returned without invoking fn. Otherwise fn runs
// and its outcome is recorded before the error is returned unchanged.
func (r *Registry) Execute(ctx context.Context, name string, fn func(context.Context) error) error {
	b := r.Get(name)
	if b.IsOpen() {
		return fmt.Errorf("service %s unavailable: %w", name, ErrOpen)
	}

	if err := fn(ctx); err != nil {
		r.notify(name, b.RecordFailure())
		return err
	}
	r.notify(name, b.RecordSuccess())
	return nil
}

// ExecuteWithFallback is Execute for callers that want a default behavior
// instead of an error when the breaker blocks or fn fails. Failover between
// services is handled a layer up; the fallback here only produces a
// substitute result.
func (r *Registry) ExecuteWithFallback(ctx context.Context, name string, fn, fallback func(context.Context) error) error {
	err := r.Execute(ctx, name, fn)
	if err != nil && fallback != nil {
		return fallback(ctx)
	}
	return err
}

// Snapshots returns the observable state of every breaker, for health
// endpoints.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Snapshot())
	}
	return out
}

func (r *Registry) notify(name string, change StateChange) {
	if r.hook == nil || change.From == change.To {
		return
	}
	r.hook(name, change.From, change.To)
}
