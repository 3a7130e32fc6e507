// Package cache keeps computed dashboards in Redis so repeated requests for
// the same parameters skip the document scan.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pricetrends/internal/pricing/models"
	"pricetrends/pkg/platform/sentinel"
)

const (
	// Redis key prefix for cached dashboards
	dashboardKeyPrefix = "pricetrends:"

	DefaultTTL = 2 * time.Minute
)

// RedisCache stores dashboards as JSON with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed dashboard cache.
func NewRedis(client redis.Cmdable, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns sentinel.ErrNotFound when the key is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.Dashboard, error) {
	body, err := c.client.Get(ctx, dashboardKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}
	var d models.Dashboard
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode cached dashboard: %w: %w", sentinel.ErrMalformed, err)
	}
	return &d, nil
}

// Set stores d under key for the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, d *models.Dashboard) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKeyPrefix+key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard: %w", err)
	}
	return nil
}

// TTL reports the expiry applied to new entries.
func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}
