// Package cache is the redis-backed shared cache. Values are stored as JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stayhub/internal/pkg/config"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/shared"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 200

type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ shared.Cache = (*RedisCache)(nil)

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errs.Wrapf(err, "cache get %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is treated as a miss and dropped.
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errs.Wrapf(err, "cache encode %s", key)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return errs.Wrapf(err, "cache set %s", key)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errs.Wrap(err, "cache delete")
	}
	return nil
}

// DeletePrefix removes every key under prefix using SCAN, so it never blocks redis.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := c.prefix + prefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return errs.Wrapf(err, "cache scan %s", prefix)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return errs.Wrapf(err, "cache delete prefix %s", prefix)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
