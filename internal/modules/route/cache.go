// README: Redis-backed cache of found routes.
package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bettercommute/internal/types"
)

type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, res Result) error
}

type noCache struct{}

func (noCache) Get(context.Context, string) (Result, bool, error) { return Result{}, false, nil }
func (noCache) Set(context.Context, string, Result) error         { return nil }

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Result, bool, error) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, fmt.Errorf("decode cached route: %w", err)
	}
	return res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res Result) error {
	if !res.Found() {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, raw, c.ttl).Err()
}

// cacheKey rounds both points to 5 decimals (about a metre).
func cacheKey(origin, destination types.Point) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}
