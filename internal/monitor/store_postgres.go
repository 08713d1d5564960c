package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"personlens/internal/correlate"
	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
)

// PostgresStore persists subscriptions in PostgreSQL via pgx. The last
// observed profile is stored as a JSONB document; the frequency as whole
// seconds.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a pgx-backed subscription store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const createSubscriptionSQL = `
INSERT INTO monitoring_subscriptions (
	id, user_id, target_type, target_value,
	frequency_seconds, active, last_checked_at, next_check_at,
	last_profile, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	profile, err := encodeProfile(sub.LastProfile)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, createSubscriptionSQL,
		uuid.UUID(sub.ID),
		uuid.UUID(sub.UserID),
		string(sub.TargetType),
		sub.TargetValue,
		int64(sub.Frequency/time.Second),
		sub.Active,
		sub.LastCheckedAt,
		sub.NextCheckAt,
		profile,
		sub.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

const getSubscriptionSQL = `
SELECT id, user_id, target_type, target_value,
       frequency_seconds, active, last_checked_at, next_check_at,
       last_profile, created_at
FROM monitoring_subscriptions
WHERE id = $1`

func (s *PostgresStore) Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, getSubscriptionSQL, uuid.UUID(subID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

const listDueSQL = `
SELECT id, user_id, target_type, target_value,
       frequency_seconds, active, last_checked_at, next_check_at,
       last_profile, created_at
FROM monitoring_subscriptions
WHERE active AND next_check_at <= $1
ORDER BY next_check_at`

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time) ([]*Subscription, error) {
	rows, err := s.pool.Query(ctx, listDueSQL, now)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	var due []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("list due subscriptions: %w", err)
		}
		due = append(due, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return due, nil
}

const updateSubscriptionSQL = `
UPDATE monitoring_subscriptions
SET active = $2,
    last_checked_at = $3,
    next_check_at = $4,
    last_profile = $5
WHERE id = $1`

func (s *PostgresStore) Update(ctx context.Context, sub *Subscription) error {
	profile, err := encodeProfile(sub.LastProfile)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, updateSubscriptionSQL,
		uuid.UUID(sub.ID),
		sub.Active,
		sub.LastCheckedAt,
		sub.NextCheckAt,
		profile,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var (
		sub        Subscription
		rawID      uuid.UUID
		rawUserID  uuid.UUID
		targetType string
		freqSec    int64
		profile    []byte
	)
	err := row.Scan(
		&rawID,
		&rawUserID,
		&targetType,
		&sub.TargetValue,
		&freqSec,
		&sub.Active,
		&sub.LastCheckedAt,
		&sub.NextCheckAt,
		&profile,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.ID = id.SubscriptionID(rawID)
	sub.UserID = id.UserID(rawUserID)
	sub.TargetType = TargetType(targetType)
	sub.Frequency = time.Duration(freqSec) * time.Second
	if len(profile) > 0 {
		var p correlate.PersonProfile
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("decode last profile: %w", err)
		}
		sub.LastProfile = &p
	}
	return &sub, nil
}

// encodeProfile marshals the profile, keeping NULL for the never-observed
// case.
func encodeProfile(p *correlate.PersonProfile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode last profile: %w", err)
	}
	return out, nil
}
