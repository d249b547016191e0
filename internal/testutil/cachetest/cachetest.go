//go:build unit || e2e

// Package cachetest provides a real redis cache backed by miniredis.
package cachetest

import (
	"testing"

	"stayhub/internal/infra/cache"
	"stayhub/internal/pkg/config"

	"github.com/alicebob/miniredis/v2"
)

func New(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.NewClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client, ""), mr
}
