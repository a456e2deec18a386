package cache

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/metrics"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 10 * time.Minute

const backendMemory = "memory"

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache   *goCache.Cache
	enabled bool
	metrics *metrics.Metrics
}

// NewInMemoryCache creates a new InMemoryCache instance. A disabled cache
// stores nothing, so every Add succeeds.
func NewInMemoryCache(enabled bool, m *metrics.Metrics) *InMemoryCache {
	return &InMemoryCache{
		cache:   goCache.New(DefaultExpiration, DefaultCleanupInterval),
		enabled: enabled,
		metrics: m,
	}
}

// Exists reports whether key holds an unexpired item
func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	start := time.Now()
	_, found := c.cache.Get(key)
	c.metrics.ObserveCacheOp(backendMemory, "exists", start, nil)
	return found, nil
}

// Add relies on go-cache's Add, which checks and sets under the cache's own lock
func (c *InMemoryCache) Add(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if !c.enabled {
		return true, nil
	}
	start := time.Now()
	err := c.cache.Add(key, value, expiration)
	c.metrics.ObserveCacheOp(backendMemory, "add", start, nil)
	// go-cache only fails Add when a live item already exists
	return err == nil, nil
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) error {
	c.cache.Flush()
	return nil
}
