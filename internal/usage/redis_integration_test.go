//go:build integration

package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "personlens/internal/platform/redis"
	"personlens/internal/usage"
	id "personlens/pkg/domain"
	"personlens/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *usage.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())

	store, err := usage.NewRedisStore(&platformredis.Client{Client: s.redis.Client})
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestMissingKeyCountsAsZero() {
	count, err := s.store.Count(s.ctx, "usage:nobody:2026-06")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RedisStoreSuite) TestAddAccumulatesAndExpires() {
	key := "usage:someone:2026-06"

	s.Require().NoError(s.store.Add(s.ctx, key, 5, time.Hour))
	s.Require().NoError(s.store.Add(s.ctx, key, 3, time.Hour))

	count, err := s.store.Count(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(8), count)

	ttl := s.redis.Client.TTL(s.ctx, key).Val()
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RedisStoreSuite) TestLimiterEndToEnd() {
	limiter, err := usage.NewLimiter(s.store, usage.WithMonthlyLimit(3))
	s.Require().NoError(err)

	userID := id.NewUserID()
	s.Require().NoError(limiter.ConsumeSearches(s.ctx, userID, 2))

	err = limiter.ConsumeSearches(s.ctx, userID, 2)
	s.Require().Error(err)
}
