package cart

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils"
	"github.com/go-playground/validator/v10"
)

// Identity resolves the acting user for a call. It is consulted at the start
// of every store operation; there is no cart independent of it.
type Identity interface {
	CurrentUser(ctx context.Context) (models.UserID, bool)
}

type IdentityFunc func(ctx context.Context) (models.UserID, bool)

func (f IdentityFunc) CurrentUser(ctx context.Context) (models.UserID, bool) {
	return f(ctx)
}

type Option func(*Store)

// WithPersister mirrors every committed mutation into p.
func WithPersister(p storage.Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// Store is the only writer of the per-user carts. Every operation holds mu for
// its whole read-check-write, so two calls never interleave mid-update.
type Store struct {
	identity  Identity
	validator *validator.Validate
	persister storage.Persister

	mu      sync.Mutex
	carts   models.UserCarts
	version uint64

	persistMu sync.Mutex
	persisted uint64
}

func New(identity Identity, opts ...Option) *Store {
	s := &Store{
		identity:  identity,
		validator: validator.New(),
		carts:     models.UserCarts{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ActingUser exposes the identity resolution used by the store.
func (s *Store) ActingUser(ctx context.Context) (models.UserID, bool) {
	return s.identity.CurrentUser(ctx)
}

// AddItem reserves one more unit of item for the acting user.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) error {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return errors.NotAuthenticatedError("Please log in to add items to cart")
	}

	return s.add(ctx, userID, item, 1)
}

// AddItemWithQuantity reserves quantity units of item in one step. Either the
// whole quantity is reserved or nothing is.
func (s *Store) AddItemWithQuantity(ctx context.Context, item models.CartItem, quantity int) error {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return errors.NotAuthenticatedError("Please log in to add items to cart")
	}

	if quantity <= 0 {
		return errors.InvalidQuantityError("Quantity must be greater than zero")
	}

	return s.add(ctx, userID, item, quantity)
}

func (s *Store) add(ctx context.Context, userID models.UserID, item models.CartItem, quantity int) error {
	if err := s.validator.Struct(item); err != nil {
		return errors.ValidationError("Invalid cart item").WithError(err)
	}

	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool, error) {
		if item.Stock <= 0 {
			return nil, false, errors.OutOfStockError()
		}

		idx := indexOf(lines, item.ID)

		current := 0
		if idx >= 0 {
			current = lines[idx].Quantity
		}

		if quantity > item.Stock-current {
			return nil, false, errors.StockExceededError(item.Stock)
		}

		line := models.CartLine{
			ID:            item.ID,
			Quantity:      current + quantity,
			OriginalStock: item.Stock,
			Price:         item.Price,
			Title:         item.Title,
			Thumbnail:     item.Thumbnail,
		}

		if idx < 0 {
			return append(lines, line), true, nil
		}

		lines[idx] = line

		return lines, true, nil
	})
}

// RemoveItem drops the line for id. Removing an absent line is not an error.
func (s *Store) RemoveItem(ctx context.Context, id int64) error {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return errors.NotAuthenticatedError("Please log in to manage your cart")
	}

	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool, error) {
		idx := indexOf(lines, id)
		if idx < 0 {
			return nil, false, nil
		}

		return slices.Delete(lines, idx, idx+1), true, nil
	})
}

// UpdateQuantity replaces the quantity of an existing line. Zero removes the
// line; it never creates one.
func (s *Store) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return errors.NotAuthenticatedError("Please log in to manage your cart")
	}

	if quantity < 0 {
		return errors.InvalidQuantityError("Quantity cannot be negative")
	}

	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool, error) {
		idx := indexOf(lines, id)

		if quantity == 0 {
			if idx < 0 {
				return nil, false, nil
			}

			return slices.Delete(lines, idx, idx+1), true, nil
		}

		if idx < 0 {
			return nil, false, errors.ItemNotFoundError("Item not found in the cart")
		}

		// OriginalStock == remaining snapshot + quantity of the last mutation.
		if quantity > lines[idx].OriginalStock {
			return nil, false, errors.StockExceededError(lines[idx].OriginalStock)
		}

		lines[idx].Quantity = quantity

		return lines, true, nil
	})
}

// GetItemQuantity is 0 when nobody is signed in or the line does not exist.
func (s *Store) GetItemQuantity(ctx context.Context, id int64) int {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	if idx := indexOf(lines, id); idx >= 0 {
		return lines[idx].Quantity
	}

	return 0
}

// ClearCart empties the acting user's cart. Other users are untouched.
func (s *Store) ClearCart(ctx context.Context) error {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return errors.NotAuthenticatedError("Please log in to manage your cart")
	}

	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool, error) {
		return []models.CartLine{}, true, nil
	})
}

// Reset wipes every user's cart, e.g. on session teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	s.carts = models.UserCarts{}
	s.version++
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.mirror(context.Background(), snapshot, version)
}

// Lines returns a copy of the acting user's lines, never nil.
func (s *Store) Lines(ctx context.Context) []models.CartLine {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return []models.CartLine{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]models.CartLine, len(s.carts[userID]))
	copy(lines, s.carts[userID])

	return lines
}

// Snapshot returns a deep copy of every user's cart.
func (s *Store) Snapshot() models.UserCarts {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.carts.Clone()
}

// Restore replaces the in-memory state with what the persister holds. Lines
// that would break the cart invariants are dropped.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	logger := middleware.LoggerFromContext(ctx)

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		logger.Warn("Failed to restore carts, starting empty", slog.Any("error", err))
		return err
	}

	restored := make(models.UserCarts, len(loaded))
	dropped := 0

	for userID, lines := range loaded {
		clean := make([]models.CartLine, 0, len(lines))

		for _, line := range lines {
			if line.Quantity < 1 || line.Quantity > line.OriginalStock || indexOf(clean, line.ID) >= 0 {
				dropped++
				continue
			}

			clean = append(clean, line)
		}

		restored[userID] = clean
	}

	s.mu.Lock()
	s.carts = restored
	s.version++
	s.mu.Unlock()

	logger.Info("Carts restored", slog.Int("users", len(restored)), slog.Int("dropped_lines", dropped))

	return nil
}

// mutate runs fn on a private copy of the user's lines and commits the result
// only when fn reports a change without error.
func (s *Store) mutate(ctx context.Context, userID models.UserID, fn func([]models.CartLine) ([]models.CartLine, bool, error)) error {
	s.mu.Lock()

	current := s.carts[userID]
	working := make([]models.CartLine, len(current))
	copy(working, current)

	next, changed, err := fn(working)
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}

	if next == nil {
		next = []models.CartLine{}
	}

	s.carts[userID] = next
	s.version++
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.mirror(ctx, snapshot, version)

	return nil
}

func (s *Store) snapshotLocked() (models.UserCarts, uint64) {
	if s.persister == nil {
		return nil, s.version
	}

	return s.carts.Clone(), s.version
}

// mirror writes snapshots in version order; a snapshot older than one already
// handed to the persister is skipped.
func (s *Store) mirror(ctx context.Context, snapshot models.UserCarts, version uint64) {
	if s.persister == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if version <= s.persisted {
		return
	}

	s.persisted = version

	saveCtx, cancel := utils.StoreContext(ctx, true)
	defer cancel()

	if err := s.persister.Save(saveCtx, snapshot); err != nil {
		metrics.RecordPersistFailure()
		middleware.LoggerFromContext(ctx).Warn("Failed to persist carts", slog.Uint64("version", version), slog.Any("error", err))
	}
}

func indexOf(lines []models.CartLine, id int64) int {
	return slices.IndexFunc(lines, func(l models.CartLine) bool {
		return l.ID == id
	})
}
