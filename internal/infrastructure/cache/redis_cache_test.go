package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/cache"
)

type RedisCacheTestSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	cache  *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheTestSuite))
}

func (s *RedisCacheTestSuite) SetupSuite() {
	var err error
	s.mini, err = miniredis.Run()
	require.NoError(s.T(), err)
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.cache = cache.NewRedisCache(s.client, 30*time.Second)
}

func (s *RedisCacheTestSuite) SetupTest() {
	s.mini.FlushAll()
}

func (s *RedisCacheTestSuite) TearDownSuite() {
	s.client.Close()
	s.mini.Close()
}

func (s *RedisCacheTestSuite) TestSetGet() {
	ctx := context.Background()
	in := dto.HierarchicalCountResponse{CategoryID: 7, Direct: 2, Total: 5, DescendantIDs: []int64{7, 8}}
	s.Require().NoError(s.cache.Set(ctx, "count:7", in))

	var out dto.HierarchicalCountResponse
	ok, err := s.cache.Get(ctx, "count:7", &out)
	s.NoError(err)
	s.True(ok)
	s.Equal(in, out)
	s.True(s.mini.Exists(cache.DefaultPrefix + "count:7"))
}

func (s *RedisCacheTestSuite) TestGet_Miss() {
	var out dto.HierarchicalCountResponse
	ok, err := s.cache.Get(context.Background(), "count:404", &out)
	s.NoError(err)
	s.False(ok)
}

func (s *RedisCacheTestSuite) TestTTL() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "tree:store:all", dto.CategoryTreeResponse{Taxonomy: "store"}))
	s.mini.FastForward(31 * time.Second)

	var out dto.CategoryTreeResponse
	ok, err := s.cache.Get(ctx, "tree:store:all", &out)
	s.NoError(err)
	s.False(ok)
}

func (s *RedisCacheTestSuite) TestInvalidate_SoloElPrefijo() {
	ctx := context.Background()
	for _, k := range []string{"tree:store:all", "tree:vendor:3", "count:1"} {
		s.Require().NoError(s.cache.Set(ctx, k, map[string]int{"n": 1}))
	}
	s.Require().NoError(s.mini.Set("session:abc", "keep"))

	s.NoError(s.cache.Invalidate(ctx))

	var out map[string]int
	ok, err := s.cache.Get(ctx, "tree:vendor:3", &out)
	s.NoError(err)
	s.False(ok)
	s.True(s.mini.Exists("session:abc"))
}

func (s *RedisCacheTestSuite) TestGet_ValorCorrupto() {
	s.Require().NoError(s.mini.Set(cache.DefaultPrefix+"count:9", "{no json"))
	var out dto.HierarchicalCountResponse
	ok, err := s.cache.Get(context.Background(), "count:9", &out)
	s.Error(err)
	s.False(ok)
}
