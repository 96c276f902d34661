package storage

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
)

// CachePersister keeps the snapshot as one JSON value under the namespace key
// of a cache.Cache (Redis in production).
type CachePersister struct {
	cache     cache.Cache
	namespace string
	ttl       time.Duration
}

// NewCachePersister stores under namespace; ttl 0 means the snapshot never expires.
func NewCachePersister(c cache.Cache, namespace string, ttl time.Duration) *CachePersister {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	if ttl == 0 {
		ttl = cache.NoExpiry
	}

	return &CachePersister{cache: c, namespace: namespace, ttl: ttl}
}

func (p *CachePersister) Load(ctx context.Context) (models.UserCarts, error) {
	var carts models.UserCarts

	found, err := p.cache.Get(ctx, p.namespace, &carts)
	if err != nil {
		return nil, err
	}

	if !found || carts == nil {
		return models.UserCarts{}, nil
	}

	return carts, nil
}

func (p *CachePersister) Save(ctx context.Context, carts models.UserCarts) error {
	return p.cache.Set(ctx, p.namespace, carts, p.ttl)
}
