// Package monitor periodically re-runs saved person searches and alerts on
// detected profile changes.
package monitor

import (
	"time"

	"personlens/internal/correlate"
	"personlens/internal/providers"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
)

// TargetType is the kind of saved target being watched.
type TargetType string

const (
	TargetEmail TargetType = "email"
	TargetPhone TargetType = "phone"
	TargetName  TargetType = "name"
)

// Valid reports whether the target type is a known kind.
func (t TargetType) Valid() bool {
	switch t {
	case TargetEmail, TargetPhone, TargetName:
		return true
	}
	return false
}

// SearchKind maps the target type onto the provider query kind.
func (t TargetType) SearchKind() providers.SearchKind {
	return providers.SearchKind(t)
}

// Subscription is a saved target re-checked on a fixed frequency. LastProfile
// is the previous observation used as the change-detection baseline; nil
// until the first successful check.
type Subscription struct {
	ID            id.SubscriptionID
	UserID        id.UserID
	TargetType    TargetType
	TargetValue   string
	Frequency     time.Duration
	Active        bool
	LastCheckedAt *time.Time
	NextCheckAt   time.Time
	LastProfile   *correlate.PersonProfile
	CreatedAt     time.Time
}

// Validate checks the fields supplied by the owning user flow.
func (s *Subscription) Validate() error {
	if !s.TargetType.Valid() {
		return domainerrors.New(domainerrors.CodeInvalidInput, "unknown target type")
	}
	if s.TargetValue == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "target value is required")
	}
	if s.Frequency <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "frequency must be positive")
	}
	return nil
}
