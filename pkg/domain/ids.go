// Package domain defines typed identifiers shared across services.
// Each ID is a distinct type over uuid.UUID so the compiler rejects
// cross-entity assignment.
package domain

import (
	"github.com/google/uuid"

	dErrors "personlens/pkg/domainerrors"
)

// UserID identifies the account that owns jobs and subscriptions.
type UserID uuid.UUID

// JobID identifies a batch search job.
type JobID uuid.UUID

// SubscriptionID identifies a monitoring subscription.
type SubscriptionID uuid.UUID

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id JobID) String() string          { return uuid.UUID(id).String() }
func (id SubscriptionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id SubscriptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs as canonical UUID strings in JSON and text
// encodings.
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id JobID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id SubscriptionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *JobID) UnmarshalText(text []byte) error {
	parsed, err := ParseJobID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubscriptionID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubscriptionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID allocates a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewJobID allocates a fresh job identifier.
func NewJobID() JobID { return JobID(uuid.New()) }

// NewSubscriptionID allocates a fresh subscription identifier.
func NewSubscriptionID() SubscriptionID { return SubscriptionID(uuid.New()) }

// ParseUserID validates and parses a user ID at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseJobID validates and parses a job ID at a trust boundary.
func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return JobID{}, err
	}
	return JobID(u), nil
}

// ParseSubscriptionID validates and parses a subscription ID at a trust boundary.
func ParseSubscriptionID(s string) (SubscriptionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubscriptionID{}, err
	}
	return SubscriptionID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be nil")
	}
	return u, nil
}
