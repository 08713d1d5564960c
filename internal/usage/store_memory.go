package usage

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a process-local counter store for tests and local runs.
// Expiry is ignored.
type InMemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewInMemoryStore constructs an empty counter store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counts: make(map[string]int64)}
}

func (s *InMemoryStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

func (s *InMemoryStore) Add(_ context.Context, key string, n int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] += n
	return nil
}
