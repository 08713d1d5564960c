package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
)

type JobStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestJobStoreSuite(t *testing.T) {
	suite.Run(t, new(JobStoreSuite))
}

func (s *JobStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *JobStoreSuite) newJob() *Job {
	return &Job{
		ID:        id.NewJobID(),
		UserID:    id.NewUserID(),
		Status:    StatusPending,
		Inputs:    []string{"a@x.com", "Bob Smith"},
		CreatedAt: time.Now().UTC(),
	}
}

func (s *JobStoreSuite) TestCreateAndGet() {
	s.Run("round-trips a job", func() {
		job := s.newJob()
		s.Require().NoError(s.store.Create(s.ctx, job))

		found, err := s.store.Get(s.ctx, job.ID)
		s.Require().NoError(err)
		s.Equal(job.Inputs, found.Inputs)
		s.Equal(StatusPending, found.Status)
	})

	s.Run("rejects duplicate IDs", func() {
		job := s.newJob()
		s.Require().NoError(s.store.Create(s.ctx, job))
		s.Require().ErrorIs(s.store.Create(s.ctx, job), sentinel.ErrConflict)
	})

	s.Run("unknown ID returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, id.NewJobID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *JobStoreSuite) TestUpdate() {
	s.Run("persists progress and terminal state", func() {
		job := s.newJob()
		s.Require().NoError(s.store.Create(s.ctx, job))

		now := time.Now().UTC()
		job.Status = StatusCompleted
		job.ProcessedCount = 2
		job.SuccessCount = 1
		job.ErrorCount = 1
		job.Results = []ItemResult{
			{Input: "a@x.com", Status: ItemSuccess},
			{Input: "Bob Smith", Status: ItemError, Error: "boom"},
		}
		job.CompletedAt = &now
		s.Require().NoError(s.store.Update(s.ctx, job))

		found, err := s.store.Get(s.ctx, job.ID)
		s.Require().NoError(err)
		s.Equal(StatusCompleted, found.Status)
		s.Equal(2, found.ProcessedCount)
		s.Len(found.Results, 2)
		s.Require().NotNil(found.CompletedAt)
	})

	s.Run("unknown job returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Update(s.ctx, s.newJob()), sentinel.ErrNotFound)
	})

	s.Run("callers never share state with the store", func() {
		job := s.newJob()
		s.Require().NoError(s.store.Create(s.ctx, job))

		found, err := s.store.Get(s.ctx, job.ID)
		s.Require().NoError(err)
		found.Inputs[0] = "mutated"

		again, err := s.store.Get(s.ctx, job.ID)
		s.Require().NoError(err)
		s.Equal("a@x.com", again.Inputs[0])
	})
}
