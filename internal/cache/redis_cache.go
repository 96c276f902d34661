package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// RedisCache JSON-encodes values into plain Redis strings. Keys are prefixed
// with the configured KeyPrefix so several deployments can share one instance.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

func NewRedisCache(client *redis.Client, cfg *config.CacheConfig) *RedisCache {
	return &RedisCache{
		client:     client,
		prefix:     cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
	}
}

// NewRedisClient dials the configured instance and fails unless it answers a PING.
func NewRedisClient(ctx context.Context, cfg *config.RedisConnect) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("invalid redis address: %w", err)
	}

	opt.DB = cfg.DB
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	slog.Info("Connected to Redis", slog.String("host", cfg.Host), slog.String("port", cfg.Port), slog.Int("db", cfg.DB))

	return client, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// ttl maps the caller's ttl onto Redis: NoExpiry becomes 0 (persist) and a
// non-positive value takes the configured default.
func (c *RedisCache) ttl(d time.Duration) time.Duration {
	if d == NoExpiry {
		return 0
	}

	if d <= 0 {
		return c.defaultTTL
	}

	return d
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %q: %w", key, err)
	}

	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}

	if err := c.client.Set(ctx, c.key(key), raw, c.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}

	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
