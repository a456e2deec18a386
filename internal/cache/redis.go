package cache

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/config"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisCache implements Cache on a shared redis so that every API replica
// sees the same conversation windows
type RedisCache struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewRedisClient builds a client from config without dialing
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
}

// NewRedisCache creates a cache with an existing client
func NewRedisCache(client *redis.Client, m *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, metrics: m}
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Redis is unreachable").
			Mark(ierr.ErrCache)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	n, err := c.client.Exists(ctx, key).Result()
	c.metrics.ObserveCacheOp(backendRedis, "exists", start, err)
	if err != nil {
		return false, ierr.WithError(err).
			WithMessagef("redis exists %s", key).
			Mark(ierr.ErrCache)
	}
	return n > 0, nil
}

// Add uses SETNX with a TTL, a single atomic command
func (c *RedisCache) Add(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.client.SetNX(ctx, key, value, expiration).Result()
	c.metrics.ObserveCacheOp(backendRedis, "add", start, err)
	if err != nil {
		return false, ierr.WithError(err).
			WithMessagef("redis setnx %s", key).
			Mark(ierr.ErrCache)
	}
	return ok, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return ierr.WithError(err).
			WithMessagef("redis del %s", key).
			Mark(ierr.ErrCache)
	}
	return nil
}

// Flush only drops keys owned by this module
func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, PrefixConversationWindow+":*", 500).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return ierr.WithError(err).Mark(ierr.ErrCache)
		}
	}
	if err := iter.Err(); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrCache)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
