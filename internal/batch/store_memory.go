package batch

import (
	"context"
	"sync"

	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded map store for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[id.JobID]*Job
}

// NewInMemoryStore constructs an empty in-memory job store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[id.JobID]*Job)}
}

func (s *InMemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return sentinel.ErrConflict
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, jobID id.JobID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *InMemoryStore) Update(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// cloneJob copies the job so callers never share slices with the store.
func cloneJob(job *Job) *Job {
	out := *job
	out.Inputs = append([]string(nil), job.Inputs...)
	out.Results = append([]ItemResult(nil), job.Results...)
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
