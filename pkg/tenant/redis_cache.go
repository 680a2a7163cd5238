package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// RedisCache shares resolved tenants between service instances.
// Redis failures degrade to cache misses; they never fail a request.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger
}

// NewRedisCache creates a Redis-backed tenant cache.
func NewRedisCache(client redis.UniversalClient, prefix string, log *slog.Logger) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "tenant cache read failed", logger.Error(err))
		}
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		c.log.WarnContext(ctx, "tenant cache entry is corrupt", logger.Error(err), slog.String("key", key))
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache write failed", logger.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache delete failed", logger.Error(err))
	}
}
