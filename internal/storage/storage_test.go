package storage_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	// Arrange
	m := storage.NewMemory()
	carts := models.UserCarts{1: {{ID: 3, Quantity: 1, OriginalStock: 2}}}

	// Act
	require.NoError(t, m.Save(t.Context(), carts))
	carts[1][0].Quantity = 99

	// Assert
	loaded, err := m.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded[1][0].Quantity, "saved snapshot must not alias the caller's map")
	assert.Equal(t, 1, m.Saves())
}

func TestMemory_EmptyLoad(t *testing.T) {
	loaded, err := storage.NewMemory().Load(t.Context())

	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func setupCachePersister(t *testing.T, ttl time.Duration) (*storage.CachePersister, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	c := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: 5 * time.Minute})

	return storage.NewCachePersister(c, "", ttl), mock
}

func TestCachePersister(t *testing.T) {
	carts := models.UserCarts{7: {{ID: 1, Quantity: 2, OriginalStock: 5}}}
	jsonData, err := json.Marshal(carts)
	require.NoError(t, err)

	t.Run("Save without expiry under default namespace", func(t *testing.T) {
		p, mock := setupCachePersister(t, 0)
		mock.ExpectSet(storage.DefaultNamespace, jsonData, 0).SetVal("OK")

		require.NoError(t, p.Save(t.Context(), carts))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Save with ttl", func(t *testing.T) {
		p, mock := setupCachePersister(t, time.Hour)
		mock.ExpectSet(storage.DefaultNamespace, jsonData, time.Hour).SetVal("OK")

		require.NoError(t, p.Save(t.Context(), carts))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Load stored snapshot", func(t *testing.T) {
		p, mock := setupCachePersister(t, 0)
		mock.ExpectGet(storage.DefaultNamespace).SetVal(string(jsonData))

		loaded, err := p.Load(t.Context())

		require.NoError(t, err)
		assert.Equal(t, carts, loaded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Load missing key is empty", func(t *testing.T) {
		p, mock := setupCachePersister(t, 0)
		mock.ExpectGet(storage.DefaultNamespace).SetErr(redis.Nil)

		loaded, err := p.Load(t.Context())

		require.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Empty(t, loaded)
	})

	t.Run("Load error is returned", func(t *testing.T) {
		p, mock := setupCachePersister(t, 0)
		mock.ExpectGet(storage.DefaultNamespace).SetErr(errors.New("connection reset"))

		_, err := p.Load(t.Context())

		assert.Error(t, err)
	})
}
