// Package cache is a small JSON value cache; Redis backs it in production.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get decodes the value under key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NoExpiry keeps a value until it is overwritten or deleted. A zero ttl means
// the configured default instead.
const NoExpiry time.Duration = -1

var _ Cache = (*RedisCache)(nil)
