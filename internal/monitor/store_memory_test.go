package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personlens/internal/correlate"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
	"personlens/pkg/platform/sentinel"
)

type SubscriptionStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestSubscriptionStoreSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionStoreSuite))
}

func (s *SubscriptionStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *SubscriptionStoreSuite) newSubscription(next time.Time) *Subscription {
	return &Subscription{
		ID:          id.NewSubscriptionID(),
		UserID:      id.NewUserID(),
		TargetType:  TargetEmail,
		TargetValue: "ada@example.com",
		Frequency:   time.Hour,
		Active:      true,
		NextCheckAt: next,
		CreatedAt:   s.now,
	}
}

func (s *SubscriptionStoreSuite) TestCreate() {
	s.Run("round-trips a subscription", func() {
		sub := s.newSubscription(s.now)
		s.Require().NoError(s.store.Create(s.ctx, sub))

		found, err := s.store.Get(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal(sub.TargetValue, found.TargetValue)
		s.Nil(found.LastProfile)
	})

	s.Run("rejects invalid target type", func() {
		sub := s.newSubscription(s.now)
		sub.TargetType = "address"
		err := s.store.Create(s.ctx, sub)
		s.Require().True(domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
	})

	s.Run("rejects duplicate IDs", func() {
		sub := s.newSubscription(s.now)
		s.Require().NoError(s.store.Create(s.ctx, sub))
		s.Require().ErrorIs(s.store.Create(s.ctx, sub), sentinel.ErrConflict)
	})
}

func (s *SubscriptionStoreSuite) TestListDue() {
	overdue := s.newSubscription(s.now.Add(-time.Hour))
	exactlyDue := s.newSubscription(s.now)
	future := s.newSubscription(s.now.Add(time.Hour))
	inactive := s.newSubscription(s.now.Add(-time.Hour))
	inactive.Active = false

	for _, sub := range []*Subscription{overdue, exactlyDue, future, inactive} {
		s.Require().NoError(s.store.Create(s.ctx, sub))
	}

	due, err := s.store.ListDue(s.ctx, s.now)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal(overdue.ID, due[0].ID)
	s.Equal(exactlyDue.ID, due[1].ID)
}

func (s *SubscriptionStoreSuite) TestUpdate() {
	s.Run("persists schedule and baseline profile", func() {
		sub := s.newSubscription(s.now)
		s.Require().NoError(s.store.Create(s.ctx, sub))

		checked := s.now.Add(time.Minute)
		sub.LastCheckedAt = &checked
		sub.NextCheckAt = checked.Add(time.Hour)
		sub.LastProfile = &correlate.PersonProfile{Emails: []string{"ada@example.com"}}
		s.Require().NoError(s.store.Update(s.ctx, sub))

		found, err := s.store.Get(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found.LastCheckedAt)
		s.Equal(checked, *found.LastCheckedAt)
		s.Require().NotNil(found.LastProfile)
		s.Equal([]string{"ada@example.com"}, found.LastProfile.Emails)
	})

	s.Run("unknown subscription returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Update(s.ctx, s.newSubscription(s.now)), sentinel.ErrNotFound)
	})

	s.Run("callers never share profile state with the store", func() {
		sub := s.newSubscription(s.now)
		sub.LastProfile = &correlate.PersonProfile{Emails: []string{"ada@example.com"}}
		s.Require().NoError(s.store.Create(s.ctx, sub))

		found, err := s.store.Get(s.ctx, sub.ID)
		s.Require().NoError(err)
		found.LastProfile.Emails[0] = "mutated"

		again, err := s.store.Get(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal("ada@example.com", again.LastProfile.Emails[0])
	})
}
