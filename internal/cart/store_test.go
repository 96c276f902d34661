package cart_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/aaravmahajanofficial/storefront-cart/internal/cart"
	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/ledger"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type userKey struct{}

func contextIdentity() cart.Identity {
	return cart.IdentityFunc(func(ctx context.Context) (models.UserID, bool) {
		id, ok := ctx.Value(userKey{}).(models.UserID)
		return id, ok
	})
}

func asUser(ctx context.Context, id models.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func product(id int64, stock int, price float64) models.CartItem {
	return models.CartItem{ID: id, Price: price, Title: "Test Product", Thumbnail: "test.jpg", Stock: stock}
}

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Load(ctx context.Context) (models.UserCarts, error) {
	args := m.Called(ctx)

	carts, _ := args.Get(0).(models.UserCarts)

	return carts, args.Error(1)
}

func (m *mockPersister) Save(ctx context.Context, carts models.UserCarts) error {
	args := m.Called(ctx, carts)
	return args.Error(0)
}

func TestAddItem(t *testing.T) {
	t.Run("Success - New line then increment", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		item := models.CartItem{ID: 1, Stock: 5, Price: 10, Title: "A", Thumbnail: "t"}

		// Act
		require.NoError(t, store.AddItem(ctx, item))

		// Assert
		lines := store.Lines(ctx)
		require.Len(t, lines, 1)
		assert.Equal(t, 1, lines[0].Quantity)
		assert.Equal(t, 4, ledger.LineStock(lines[0]))

		// Act
		require.NoError(t, store.AddItem(ctx, item))

		// Assert
		lines = store.Lines(ctx)
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Quantity)
		assert.Equal(t, 3, ledger.LineStock(lines[0]))
	})

	t.Run("Failure - Stock limit reached", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		item := product(1, 2, 10.99)

		// Act
		require.NoError(t, store.AddItem(ctx, item))
		require.NoError(t, store.AddItem(ctx, item))
		err := store.AddItem(ctx, item)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrStockExceeded)
		available, ok := appErrors.AvailableStock(err)
		require.True(t, ok)
		assert.Equal(t, 2, available)
		assert.Equal(t, "Only 2 items available in stock", err.Error())
		assert.Equal(t, 2, store.GetItemQuantity(ctx, 1))
	})

	t.Run("Failure - Out of stock", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		// Act
		err := store.AddItem(ctx, product(1, 0, 10.99))

		// Assert
		require.ErrorIs(t, err, appErrors.ErrOutOfStock)
		assert.Equal(t, "This item is out of stock", err.Error())
		assert.Equal(t, 0, store.GetItemQuantity(ctx, 1))
		assert.Empty(t, store.Snapshot())
	})

	t.Run("Failure - Catalog dropped to zero after reservation", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, product(1, 3, 1)))

		// Act
		err := store.AddItem(ctx, product(1, 0, 1))

		// Assert
		require.ErrorIs(t, err, appErrors.ErrOutOfStock)
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 1))
	})

	t.Run("Failure - Not authenticated", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())

		// Act
		err := store.AddItem(t.Context(), product(1, 5, 10.99))

		// Assert
		require.ErrorIs(t, err, appErrors.ErrNotAuthenticated)
		assert.Equal(t, "Please log in to add items to cart", err.Error())
		assert.Empty(t, store.Snapshot())
		assert.Equal(t, 0, store.GetItemQuantity(t.Context(), 1))
	})

	t.Run("Failure - Malformed item", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		// Act
		err := store.AddItem(ctx, models.CartItem{ID: 0, Price: -1, Stock: 5})

		// Assert
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		assert.Empty(t, store.Lines(ctx))
	})

	t.Run("Success - Refreshes display data from latest catalog", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, models.CartItem{ID: 1, Stock: 5, Price: 10, Title: "Old"}))

		// Act
		require.NoError(t, store.AddItem(ctx, models.CartItem{ID: 1, Stock: 8, Price: 12, Title: "New"}))

		// Assert
		lines := store.Lines(ctx)
		require.Len(t, lines, 1)
		assert.Equal(t, "New", lines[0].Title)
		assert.Equal(t, 12.0, lines[0].Price)
		assert.Equal(t, 8, lines[0].OriginalStock)
		assert.Equal(t, 6, ledger.LineStock(lines[0]))
	})
}

func TestAddItemWithQuantity(t *testing.T) {
	t.Run("Success - Reserve then remove via zero update", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		// Act
		require.NoError(t, store.AddItemWithQuantity(ctx, product(2, 10, 3), 4))

		// Assert
		lines := store.Lines(ctx)
		require.Len(t, lines, 1)
		assert.Equal(t, 4, lines[0].Quantity)
		assert.Equal(t, 6, ledger.LineStock(lines[0]))

		// Act
		require.NoError(t, store.UpdateQuantity(ctx, 2, 0))

		// Assert
		assert.Equal(t, 0, store.GetItemQuantity(ctx, 2))
		assert.Empty(t, store.Lines(ctx))
	})

	t.Run("Success - Increments existing line", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItemWithQuantity(ctx, product(2, 10, 3), 4))

		// Act
		err := store.AddItemWithQuantity(ctx, product(2, 10, 3), 6)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 10, store.GetItemQuantity(ctx, 2))
	})

	t.Run("Failure - Invalid quantity", func(t *testing.T) {
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		for _, q := range []int{0, -1} {
			err := store.AddItemWithQuantity(ctx, product(2, 10, 3), q)
			require.ErrorIs(t, err, appErrors.ErrInvalidQuantity)
		}

		assert.Empty(t, store.Snapshot())
	})

	t.Run("Failure - Exceeds stock on new line", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		// Act
		err := store.AddItemWithQuantity(ctx, product(2, 3, 3), 4)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrStockExceeded)
		assert.Empty(t, store.Lines(ctx))
	})

	t.Run("Failure - Exceeds stock on existing line leaves it untouched", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItemWithQuantity(ctx, product(2, 5, 3), 3))

		// Act
		err := store.AddItemWithQuantity(ctx, product(2, 5, 3), 3)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrStockExceeded)
		available, _ := appErrors.AvailableStock(err)
		assert.Equal(t, 5, available)
		assert.Equal(t, 3, store.GetItemQuantity(ctx, 2))
	})

	t.Run("Failure - Huge quantity on existing line does not wrap", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, product(2, 5, 3)))

		// Act
		err := store.AddItemWithQuantity(ctx, product(2, 5, 3), math.MaxInt)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrStockExceeded)
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 2))
		assert.Equal(t, 1, cart.TotalItems(store.Lines(ctx)))
		assert.InDelta(t, 3.0, cart.TotalPrice(store.Lines(ctx)), 1e-9)
	})
}

func TestRemoveItem(t *testing.T) {
	t.Run("Success - Removes line", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, product(1, 5, 10.99)))
		require.NoError(t, store.AddItem(ctx, product(2, 5, 1)))

		// Act
		err := store.RemoveItem(ctx, 1)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 0, store.GetItemQuantity(ctx, 1))
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 2))
	})

	t.Run("Success - Absent line is a no-op", func(t *testing.T) {
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)

		require.NoError(t, store.RemoveItem(ctx, 42))
		assert.Empty(t, store.Snapshot())
	})

	t.Run("Failure - Not authenticated", func(t *testing.T) {
		store := cart.New(contextIdentity())

		assert.ErrorIs(t, store.RemoveItem(t.Context(), 1), appErrors.ErrNotAuthenticated)
	})
}

func TestUpdateQuantity(t *testing.T) {
	setup := func(t *testing.T) (*cart.Store, context.Context) {
		t.Helper()

		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, product(1, 2, 10.99)))

		return store, ctx
	}

	t.Run("Success - Updates quantity and derived stock", func(t *testing.T) {
		// Arrange
		store, ctx := setup(t)

		// Act
		err := store.UpdateQuantity(ctx, 1, 2)

		// Assert
		require.NoError(t, err)
		lines := store.Lines(ctx)
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Quantity)
		assert.Equal(t, 0, ledger.LineStock(lines[0]))
	})

	t.Run("Failure - Above original stock", func(t *testing.T) {
		// Arrange
		store, ctx := setup(t)

		// Act
		err := store.UpdateQuantity(ctx, 1, 5)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrStockExceeded)
		assert.Equal(t, "Only 2 items available in stock", err.Error())
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 1))
	})

	t.Run("Failure - Negative quantity", func(t *testing.T) {
		// Arrange
		store, ctx := setup(t)

		// Act
		err := store.UpdateQuantity(ctx, 1, -1)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrInvalidQuantity)
		assert.Equal(t, "Quantity cannot be negative", err.Error())
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 1))
	})

	t.Run("Failure - Never creates a line", func(t *testing.T) {
		// Arrange
		store, ctx := setup(t)

		// Act
		err := store.UpdateQuantity(ctx, 99, 1)

		// Assert
		require.ErrorIs(t, err, appErrors.ErrItemNotFound)
		assert.Len(t, store.Lines(ctx), 1)
	})

	t.Run("Success - Zero on absent line is a no-op", func(t *testing.T) {
		store, ctx := setup(t)

		require.NoError(t, store.UpdateQuantity(ctx, 99, 0))
		assert.Len(t, store.Lines(ctx), 1)
	})
}

func TestClearCart(t *testing.T) {
	t.Run("Success - Only the acting user is cleared", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		seven := asUser(t.Context(), 7)
		eight := asUser(t.Context(), 8)

		for id := int64(1); id <= 3; id++ {
			require.NoError(t, store.AddItem(seven, product(id, 5, 1)))
		}
		require.NoError(t, store.AddItem(eight, product(1, 5, 1)))

		// Act
		require.NoError(t, store.ClearCart(seven))

		// Assert
		snapshot := store.Snapshot()
		require.Contains(t, snapshot, models.UserID(7))
		assert.NotNil(t, snapshot[7])
		assert.Empty(t, snapshot[7])
		assert.Len(t, snapshot[8], 1)
	})

	t.Run("Success - Idempotent", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 7)
		require.NoError(t, store.AddItem(ctx, product(1, 5, 1)))

		// Act
		require.NoError(t, store.ClearCart(ctx))
		once := store.Snapshot()
		require.NoError(t, store.ClearCart(ctx))

		// Assert
		assert.Equal(t, once, store.Snapshot())
	})

	t.Run("Failure - Not authenticated", func(t *testing.T) {
		store := cart.New(contextIdentity())

		assert.ErrorIs(t, store.ClearCart(t.Context()), appErrors.ErrNotAuthenticated)
		assert.Empty(t, store.Snapshot())
	})
}

func TestReset(t *testing.T) {
	store := cart.New(contextIdentity())
	require.NoError(t, store.AddItem(asUser(t.Context(), 1), product(1, 5, 1)))
	require.NoError(t, store.AddItem(asUser(t.Context(), 2), product(1, 5, 1)))

	store.Reset()

	assert.Empty(t, store.Snapshot())
}

func TestSelectors(t *testing.T) {
	t.Run("Totals", func(t *testing.T) {
		lines := []models.CartLine{
			{ID: 1, Price: 10, Quantity: 2, OriginalStock: 5},
			{ID: 2, Price: 5, Quantity: 3, OriginalStock: 5},
		}

		assert.Equal(t, 35.0, cart.TotalPrice(lines))
		assert.Equal(t, 5, cart.TotalItems(lines))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Zero(t, cart.TotalPrice(nil))
		assert.Zero(t, cart.TotalItems(nil))
	})

	t.Run("Store totals follow the acting user", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItemWithQuantity(ctx, product(1, 5, 10), 2))
		require.NoError(t, store.AddItemWithQuantity(ctx, product(2, 5, 5), 3))

		// Assert
		assert.Equal(t, 5, store.TotalItems(ctx))
		assert.Equal(t, 35.0, store.TotalPrice(ctx))
		assert.Zero(t, store.TotalItems(asUser(t.Context(), 2)))
		assert.Zero(t, store.TotalPrice(t.Context()))
	})

	t.Run("Lines are a fresh copy", func(t *testing.T) {
		// Arrange
		store := cart.New(contextIdentity())
		ctx := asUser(t.Context(), 1)
		require.NoError(t, store.AddItem(ctx, product(1, 5, 10)))

		// Act
		lines := store.Lines(ctx)
		lines[0].Quantity = 99

		// Assert
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 1))
		assert.NotNil(t, store.Lines(asUser(t.Context(), 2)))
	})

	t.Run("View carries computed stock", func(t *testing.T) {
		view := cart.View([]models.CartLine{{ID: 1, Price: 10, Quantity: 2, OriginalStock: 5}})

		require.Len(t, view.Items, 1)
		assert.Equal(t, 3, view.Items[0].Stock)
		assert.Equal(t, 2, view.TotalItems)
		assert.Equal(t, 20.0, view.TotalPrice)
	})
}

func TestPersistence(t *testing.T) {
	t.Run("Mirrors each committed mutation", func(t *testing.T) {
		// Arrange
		persister := storage.NewMemory()
		store := cart.New(contextIdentity(), cart.WithPersister(persister))
		ctx := asUser(t.Context(), 1)

		// Act
		require.NoError(t, store.AddItem(ctx, product(1, 5, 1)))
		require.ErrorIs(t, store.AddItem(ctx, product(2, 0, 1)), appErrors.ErrOutOfStock)
		require.NoError(t, store.RemoveItem(ctx, 404))

		// Assert
		assert.Equal(t, 1, persister.Saves(), "failed and no-op operations must not be mirrored")
		saved, err := persister.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, store.Snapshot(), saved)
	})

	t.Run("Save failure does not fail the operation", func(t *testing.T) {
		// Arrange
		persister := new(mockPersister)
		persister.On("Save", mock.Anything, mock.AnythingOfType("models.UserCarts")).Return(errors.New("redis down")).Once()
		store := cart.New(contextIdentity(), cart.WithPersister(persister))
		ctx := asUser(t.Context(), 1)

		// Act
		err := store.AddItem(ctx, product(1, 5, 1))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, store.GetItemQuantity(ctx, 1))
		persister.AssertExpectations(t)
	})

	t.Run("Restore drops lines breaking invariants", func(t *testing.T) {
		// Arrange
		persister := new(mockPersister)
		persister.On("Load", mock.Anything).Return(models.UserCarts{
			1: {
				{ID: 1, Quantity: 2, OriginalStock: 5},
				{ID: 1, Quantity: 1, OriginalStock: 5},
				{ID: 2, Quantity: 0, OriginalStock: 5},
				{ID: 3, Quantity: 9, OriginalStock: 5},
			},
			2: nil,
		}, nil).Once()
		store := cart.New(contextIdentity(), cart.WithPersister(persister))

		// Act
		err := store.Restore(t.Context())

		// Assert
		require.NoError(t, err)
		snapshot := store.Snapshot()
		assert.Equal(t, []models.CartLine{{ID: 1, Quantity: 2, OriginalStock: 5}}, snapshot[1])
		assert.NotNil(t, snapshot[2])
		persister.AssertExpectations(t)
	})

	t.Run("Restore failure is reported", func(t *testing.T) {
		persister := new(mockPersister)
		persister.On("Load", mock.Anything).Return(nil, errors.New("timeout")).Once()
		store := cart.New(contextIdentity(), cart.WithPersister(persister))

		assert.Error(t, store.Restore(t.Context()))
		assert.Empty(t, store.Snapshot())
	})

	t.Run("No persister degrades to memory", func(t *testing.T) {
		store := cart.New(contextIdentity())

		require.NoError(t, store.Restore(t.Context()))
		require.NoError(t, store.AddItem(asUser(t.Context(), 1), product(1, 5, 1)))
	})
}

func TestConcurrentReservations(t *testing.T) {
	// Arrange
	store := cart.New(contextIdentity())
	ctx := asUser(t.Context(), 1)
	item := product(1, 50, 1)

	var wg sync.WaitGroup

	// Act
	for range 200 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = store.AddItem(ctx, item)
		}()
	}

	wg.Wait()

	// Assert
	assert.Equal(t, 50, store.GetItemQuantity(ctx, 1))
}
