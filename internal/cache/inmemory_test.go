package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryCacheSuite struct {
	suite.Suite
	ctx   context.Context
	cache *InMemoryCache
}

func TestInMemoryCache(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = NewInMemoryCache(true, nil)
}

func (s *InMemoryCacheSuite) TestAdd() {
	key := GenerateKey(PrefixConversationWindow, "tenant_1", "5511999998888", "MARKETING")
	s.Equal("conversation_window:v1:tenant_1:5511999998888:MARKETING", key)

	added, err := s.cache.Add(s.ctx, key, true, time.Minute)
	s.NoError(err)
	s.True(added)

	added, err = s.cache.Add(s.ctx, key, true, time.Minute)
	s.NoError(err)
	s.False(added)

	exists, err := s.cache.Exists(s.ctx, key)
	s.NoError(err)
	s.True(exists)
}

func (s *InMemoryCacheSuite) TestAddAfterExpiry() {
	added, err := s.cache.Add(s.ctx, "k", true, 20*time.Millisecond)
	s.NoError(err)
	s.True(added)

	time.Sleep(40 * time.Millisecond)

	exists, err := s.cache.Exists(s.ctx, "k")
	s.NoError(err)
	s.False(exists)

	added, err = s.cache.Add(s.ctx, "k", true, time.Minute)
	s.NoError(err)
	s.True(added)
}

func (s *InMemoryCacheSuite) TestConcurrentAddHasOneWinner() {
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.cache.Add(s.ctx, "contended", true, time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins)
}

func (s *InMemoryCacheSuite) TestDisabled() {
	c := NewInMemoryCache(false, nil)
	for i := 0; i < 2; i++ {
		added, err := c.Add(s.ctx, "k", true, time.Minute)
		s.NoError(err)
		s.True(added)
	}
	exists, err := c.Exists(s.ctx, "k")
	s.NoError(err)
	s.False(exists)
}

func (s *InMemoryCacheSuite) TestDeleteAndFlush() {
	_, _ = s.cache.Add(s.ctx, "a", true, time.Minute)
	_, _ = s.cache.Add(s.ctx, "b", true, time.Minute)

	s.NoError(s.cache.Delete(s.ctx, "a"))
	exists, _ := s.cache.Exists(s.ctx, "a")
	s.False(exists)

	s.NoError(s.cache.Flush(s.ctx))
	exists, _ = s.cache.Exists(s.ctx, "b")
	s.False(exists)
}
