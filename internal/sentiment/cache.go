package sentiment

import (
	"context"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/data/redisStore"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

type RedisCache struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisCache(store *redisStore.Store) *RedisCache {
	return &RedisCache{store: store, logger: logger_i.NewLogger("SentimentCache")}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if !c.store.IsNil(err) {
			c.logger.WithTrace(ctx).Warn("Sentiment cache read failed", "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, label string) {
	if err := c.store.Set(ctx, key, label, config.RedisSentimentCacheTTL); err != nil {
		c.logger.WithTrace(ctx).Warn("Sentiment cache write failed", "error", err)
	}
}
