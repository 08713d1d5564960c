//go:build integration

package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personlens/internal/correlate"
	"personlens/internal/monitor"
	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
	"personlens/pkg/testutil/containers"
)

type PostgresSubscriptionStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *monitor.PostgresStore
	ctx      context.Context
}

func TestPostgresSubscriptionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSubscriptionStoreSuite))
}

func (s *PostgresSubscriptionStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = monitor.NewPostgres(s.postgres.Pool)
	s.ctx = context.Background()
}

func (s *PostgresSubscriptionStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "monitoring_subscriptions"))
}

func newPostgresSubscription(next time.Time) *monitor.Subscription {
	return &monitor.Subscription{
		ID:          id.NewSubscriptionID(),
		UserID:      id.NewUserID(),
		TargetType:  monitor.TargetEmail,
		TargetValue: "ada@example.com",
		Frequency:   time.Hour,
		Active:      true,
		NextCheckAt: next,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresSubscriptionStoreSuite) TestRoundTrip() {
	sub := newPostgresSubscription(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, sub))

	found, err := s.store.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(sub.ID, found.ID)
	s.Equal(sub.UserID, found.UserID)
	s.Equal(monitor.TargetEmail, found.TargetType)
	s.Equal(time.Hour, found.Frequency)
	s.Nil(found.LastProfile)
	s.Nil(found.LastCheckedAt)
}

func (s *PostgresSubscriptionStoreSuite) TestDuplicateCreate() {
	sub := newPostgresSubscription(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, sub))
	s.Require().ErrorIs(s.store.Create(s.ctx, sub), sentinel.ErrConflict)
}

func (s *PostgresSubscriptionStoreSuite) TestListDue() {
	now := time.Now().UTC()
	overdue := newPostgresSubscription(now.Add(-time.Hour))
	future := newPostgresSubscription(now.Add(time.Hour))
	inactive := newPostgresSubscription(now.Add(-time.Hour))
	inactive.Active = false

	for _, sub := range []*monitor.Subscription{overdue, future, inactive} {
		s.Require().NoError(s.store.Create(s.ctx, sub))
	}

	due, err := s.store.ListDue(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(overdue.ID, due[0].ID)
}

func (s *PostgresSubscriptionStoreSuite) TestUpdateScheduleAndProfile() {
	sub := newPostgresSubscription(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, sub))

	checked := time.Now().UTC().Truncate(time.Microsecond)
	sub.LastCheckedAt = &checked
	sub.NextCheckAt = checked.Add(time.Hour)
	sub.LastProfile = &correlate.PersonProfile{
		Names:       []string{"Ada Lovelace"},
		Emails:      []string{"ada@example.com"},
		SocialMedia: map[string]string{"github": "ada"},
	}
	s.Require().NoError(s.store.Update(s.ctx, sub))

	found, err := s.store.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastCheckedAt)
	s.WithinDuration(checked, *found.LastCheckedAt, time.Second)
	s.Require().NotNil(found.LastProfile)
	s.Equal([]string{"Ada Lovelace"}, found.LastProfile.Names)
	s.Equal("ada", found.LastProfile.SocialMedia["github"])
}

func (s *PostgresSubscriptionStoreSuite) TestUpdateUnknownSubscription() {
	s.Require().ErrorIs(s.store.Update(s.ctx, newPostgresSubscription(time.Now().UTC())), sentinel.ErrNotFound)
}
