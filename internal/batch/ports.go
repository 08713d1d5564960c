package batch

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks JobStore,Searcher,Notifier,UsageGate

import (
	"context"

	"personlens/internal/failover"
	"personlens/internal/providers"
	id "personlens/pkg/domain"
)

// JobStore persists batch jobs. Implementations must tolerate repeated
// Update calls for the same job since delivery is at-least-once.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID id.JobID) (*Job, error)

	// Update persists the job's mutable fields: status, counters, results,
	// failure reason and completion time.
	Update(ctx context.Context, job *Job) error
}

// Searcher runs one provider search with failover. Satisfied by
// *failover.Orchestrator.
type Searcher interface {
	Search(ctx context.Context, kind providers.SearchKind, params map[string]string) (*failover.Result, error)
}

// Notifier receives job lifecycle events. Delivery is best-effort; failures
// are logged and never affect job state.
type Notifier interface {
	JobProgress(ctx context.Context, job *Job) error
	JobFinished(ctx context.Context, job *Job) error
}

// UsageGate admits or rejects new work for a user. Counting is approximate
// admission control, not exact accounting.
type UsageGate interface {
	ConsumeSearches(ctx context.Context, userID id.UserID, n int) error
}
