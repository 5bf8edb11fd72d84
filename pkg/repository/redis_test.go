package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RedisRepositoryTestSuite runs against a live server named by
// STOREFRONT_TEST_REDIS_ADDR.
type RedisRepositoryTestSuite struct {
	suite.Suite
	repo *RedisRepository
	ctx  context.Context
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	if os.Getenv("STOREFRONT_TEST_REDIS_ADDR") == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.repo = NewRedisRepository(&config.RedisConfig{
		Enabled:  true,
		Addr:     os.Getenv("STOREFRONT_TEST_REDIS_ADDR"),
		PoolSize: 4,
	})
	s.Require().NoError(s.repo.Ping(s.ctx))
}

func (s *RedisRepositoryTestSuite) TearDownSuite() {
	s.Require().NoError(s.repo.Close())
}

func (s *RedisRepositoryTestSuite) TestAllowSetsWindowOnFirstHit() {
	key := "test:allow:" + primitive.NewObjectID().Hex()
	defer s.repo.Del(s.ctx, key)

	ok, err := s.repo.Allow(s.ctx, key, 2, time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ttl, err := s.repo.client.TTL(s.ctx, key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)

	ok, err = s.repo.Allow(s.ctx, key, 2, time.Minute)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.repo.Allow(s.ctx, key, 2, time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	// Later hits keep the original window.
	ttl, err = s.repo.client.TTL(s.ctx, key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisRepositoryTestSuite) TestAllowResetsAfterWindow() {
	key := "test:allow:" + primitive.NewObjectID().Hex()
	defer s.repo.Del(s.ctx, key)

	ok, err := s.repo.Allow(s.ctx, key, 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.repo.Allow(s.ctx, key, 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(ok)

	s.Eventually(func() bool {
		ok, err := s.repo.Allow(s.ctx, key, 1, 200*time.Millisecond)
		return err == nil && ok
	}, 3*time.Second, 100*time.Millisecond)
}

func (s *RedisRepositoryTestSuite) TestJSONRoundTripAndMissingKey() {
	key := "test:json:" + primitive.NewObjectID().Hex()
	defer s.repo.Del(s.ctx, key)

	var got map[string]int
	s.ErrorIs(s.repo.GetJSON(s.ctx, key, &got), ErrNotFound)

	s.Require().NoError(s.repo.SetJSON(s.ctx, key, map[string]int{"a": 1}, time.Minute))
	s.Require().NoError(s.repo.GetJSON(s.ctx, key, &got))
	s.Equal(1, got["a"])
}
