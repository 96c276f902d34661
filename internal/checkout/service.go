// Package checkout places an order from the acting user's cart and
// reconciles the remote profile and cart once the order is taken.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/cart"
	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
	"github.com/aaravmahajanofficial/storefront-cart/pkg/catalog"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
)

// Cart is the part of *cart.Store checkout needs.
type Cart interface {
	ActingUser(ctx context.Context) (models.UserID, bool)
	Lines(ctx context.Context) []models.CartLine
	ClearCart(ctx context.Context) error
}

// Remote is the account API updated after an order is taken.
type Remote interface {
	UpdateUser(ctx context.Context, userID models.UserID, update models.UserUpdate) error
	ClearCart(ctx context.Context, userID models.UserID) error
}

type Mailer interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
}

type Option func(*Service)

func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithRetry sets how many times each remote call is attempted and the delay
// before the first retry. The delay doubles on every further retry.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(s *Service) {
		s.attempts = max(attempts, 1)
		s.interval = interval
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	cart     Cart
	remote   Remote
	mailer   Mailer
	notifier notify.Notifier
	validate *validator.Validate

	attempts int
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastOrders map[models.UserID]*models.Order
}

func NewService(c Cart, remote Remote, opts ...Option) *Service {
	s := &Service{
		cart:       c,
		remote:     remote,
		notifier:   notify.Discard,
		attempts:   3,
		interval:   time.Second,
		now:        time.Now,
		lastOrders: map[models.UserID]*models.Order{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.validate = newValidator(s.now)

	return s
}

// PlaceOrder turns the acting user's cart into an order. Remote follow-ups and
// the confirmation email are best effort: their failures become notices and
// the order still succeeds.
func (s *Service) PlaceOrder(ctx context.Context, shipping models.ShippingInfo, payment models.PaymentInfo) (order *models.Order, err error) {
	defer func() { metrics.RecordCartOperation("checkout", err) }()

	logger := middleware.LoggerFromContext(ctx)
	notifier := notify.FromContext(ctx, s.notifier)

	userID, ok := s.cart.ActingUser(ctx)
	if !ok {
		err = errors.UnauthorizedError("Authentication required. Please log in to complete your order.")
		notifier.Notify(ctx, notify.ForError(err))

		return nil, err
	}

	lines := s.cart.Lines(ctx)
	if len(lines) == 0 {
		return nil, errors.BadRequestError("Your cart is empty")
	}

	if payment.Method != models.PaymentMethodCreditCard {
		payment.CreditCard = nil
	}

	if err = s.validate.Struct(struct {
		Shipping models.ShippingInfo
		Payment  models.PaymentInfo
	}{shipping, payment}); err != nil {
		return nil, errors.ValidationError("Invalid checkout details").WithError(err)
	}

	placedAt := s.now().UTC()
	order = &models.Order{
		OrderID:      fmt.Sprintf("ORD-%d", placedAt.UnixMilli()),
		UserID:       userID,
		ShippingInfo: shipping,
		PaymentInfo:  payment,
		Products:     orderProducts(lines),
		TotalPrice:   cart.TotalPrice(lines),
		OrderDate:    placedAt,
	}

	update := models.UserUpdate{
		Address: models.UserAddress{
			Address:    shipping.Address,
			City:       shipping.City,
			State:      shipping.State,
			Country:    shipping.Country,
			PostalCode: shipping.PostalCode,
		},
		Phone: shipping.Phone,
	}

	if rErr := s.retry(ctx, func(ctx context.Context) error {
		return s.remote.UpdateUser(ctx, userID, update)
	}); rErr != nil {
		logger.Warn("Failed to update user information", slog.Any("user_id", userID), slog.String("error", rErr.Error()))
		notifier.Notify(ctx, notify.ForError(rErr))
	}

	if rErr := s.retry(ctx, func(ctx context.Context) error {
		return s.remote.ClearCart(ctx, userID)
	}); rErr != nil {
		logger.Warn("Failed to clear remote cart", slog.Any("user_id", userID), slog.String("error", rErr.Error()))
		notifier.Notify(ctx, notify.ForError(rErr))
	}

	if err = s.cart.ClearCart(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastOrders[userID] = order
	s.mu.Unlock()

	s.sendConfirmation(ctx, order, notifier)

	logger.Info("Order placed",
		slog.String("order_id", order.OrderID),
		slog.Any("user_id", userID),
		slog.Int("products", len(order.Products)),
		slog.Float64("total", order.TotalPrice),
	)
	notifier.Notify(ctx, notify.Success("Order placed successfully!"))

	return order, nil
}

// LastOrder is the most recent order of the acting user. It is held in
// memory only.
func (s *Service) LastOrder(ctx context.Context) (*models.Order, error) {
	userID, ok := s.cart.ActingUser(ctx)
	if !ok {
		return nil, errors.UnauthorizedError("Please log in to view your order")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.lastOrders[userID]
	if !ok {
		return nil, errors.NotFoundError("No order has been placed yet")
	}

	return order, nil
}

func (s *Service) retry(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.interval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.attempts-1)), ctx)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err != nil && !catalog.Retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, policy)
}

func (s *Service) sendConfirmation(ctx context.Context, order *models.Order, notifier notify.Notifier) {
	if s.mailer == nil || order.ShippingInfo.Email == "" {
		return
	}

	var body strings.Builder

	fmt.Fprintf(&body, "Hi %s,\n\nThanks for your order %s.\n\n", order.ShippingInfo.FirstName, order.OrderID)

	for _, p := range order.Products {
		fmt.Fprintf(&body, "%d x %s  %.2f\n", p.Quantity, p.Title, p.Price*float64(p.Quantity))
	}

	fmt.Fprintf(&body, "\nTotal: %.2f\nPayment: %s\n", order.TotalPrice, order.PaymentInfo.Method)

	err := s.mailer.Send(ctx, &models.EmailNotificationRequest{
		To:      order.ShippingInfo.Email,
		Subject: "Order confirmation " + order.OrderID,
		Content: body.String(),
	})
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to send order confirmation",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		notifier.Notify(ctx, notify.Error("We couldn't email your order confirmation."))
	}
}

func orderProducts(lines []models.CartLine) []models.OrderProduct {
	products := make([]models.OrderProduct, 0, len(lines))
	for _, line := range lines {
		products = append(products, models.OrderProduct{
			ID:        line.ID,
			Title:     line.Title,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Thumbnail: line.Thumbnail,
		})
	}

	return products
}
