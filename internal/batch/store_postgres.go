package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
	"personlens/pkg/platform/tx"
)

// PostgresStore persists batch jobs in PostgreSQL. Inputs are stored as a
// text array, results as a JSONB document.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed job store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// runner abstracts over *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runner returns the context transaction when one is present, otherwise the
// pooled connection.
func (s *PostgresStore) runner(ctx context.Context) runner {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const createJobSQL = `
INSERT INTO batch_jobs (
	id, user_id, status, inputs,
	processed_count, success_count, error_count,
	results, failure_reason, created_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = s.runner(ctx).ExecContext(ctx, createJobSQL,
		uuid.UUID(job.ID),
		uuid.UUID(job.UserID),
		string(job.Status),
		pq.Array(job.Inputs),
		job.ProcessedCount,
		job.SuccessCount,
		job.ErrorCount,
		results,
		job.FailureReason,
		job.CreatedAt,
		nullTime(job.CompletedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create batch job: %w", err)
	}
	return nil
}

const getJobSQL = `
SELECT id, user_id, status, inputs,
       processed_count, success_count, error_count,
       results, failure_reason, created_at, completed_at
FROM batch_jobs
WHERE id = $1`

func (s *PostgresStore) Get(ctx context.Context, jobID id.JobID) (*Job, error) {
	var (
		job       Job
		rawID     uuid.UUID
		rawUserID uuid.UUID
		status    string
		inputs    pq.StringArray
		results   []byte
		completed sql.NullTime
	)
	err := s.runner(ctx).QueryRowContext(ctx, getJobSQL, uuid.UUID(jobID)).Scan(
		&rawID,
		&rawUserID,
		&status,
		&inputs,
		&job.ProcessedCount,
		&job.SuccessCount,
		&job.ErrorCount,
		&results,
		&job.FailureReason,
		&job.CreatedAt,
		&completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get batch job: %w", err)
	}

	job.ID = id.JobID(rawID)
	job.UserID = id.UserID(rawUserID)
	job.Status = Status(status)
	job.Inputs = []string(inputs)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

const updateJobSQL = `
UPDATE batch_jobs
SET status = $2,
    processed_count = $3,
    success_count = $4,
    error_count = $5,
    results = $6,
    failure_reason = $7,
    completed_at = $8
WHERE id = $1`

func (s *PostgresStore) Update(ctx context.Context, job *Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	res, err := s.runner(ctx).ExecContext(ctx, updateJobSQL,
		uuid.UUID(job.ID),
		string(job.Status),
		job.ProcessedCount,
		job.SuccessCount,
		job.ErrorCount,
		results,
		job.FailureReason,
		nullTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update batch job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch job: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
