package storage

import (
	"context"
	"sync"

	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
)

// DefaultNamespace is the key the cart snapshot is stored under.
const DefaultNamespace = "cart-storage"

// Persister mirrors the cart state into a durable key-value store.
// Load returns an empty, non-nil map when nothing was stored yet.
type Persister interface {
	Load(ctx context.Context) (models.UserCarts, error)
	Save(ctx context.Context, carts models.UserCarts) error
}

// Memory keeps the snapshot in process. Useful for tests and the "memory" backend.
type Memory struct {
	mu    sync.Mutex
	carts models.UserCarts
	saves int
}

func NewMemory() *Memory {
	return &Memory{carts: models.UserCarts{}}
}

func (m *Memory) Load(_ context.Context) (models.UserCarts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.carts.Clone(), nil
}

func (m *Memory) Save(_ context.Context, carts models.UserCarts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts = carts.Clone()
	m.saves++

	return nil
}

// Saves reports how many snapshots were written.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}
