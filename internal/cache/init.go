package cache

import (
	"context"

	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/convowin/convowin/internal/types"
	"go.uber.org/fx"
)

// Initialize picks the cache backend from config. A redis that cannot be
// reached at startup is logged and still used: window checks fail open.
func Initialize(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger, m *metrics.Metrics) Cache {
	log.Infow("initializing cache system", "backend", cfg.Cache.Backend, "enabled", cfg.Cache.Enabled)

	if cfg.Cache.Backend != types.CacheBackendRedis || !cfg.Cache.Enabled {
		return NewInMemoryCache(cfg.Cache.Enabled, m)
	}

	rc := NewRedisCache(NewRedisClient(cfg.Redis), m)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rc.Ping(ctx); err != nil {
				log.Warnw("redis cache unreachable, conversation windows will fail open", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rc.Close()
		},
	})

	log.Info("cache system initialized")
	return rc
}
