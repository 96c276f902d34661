package controllers

import (
	"context"
	"sync"

	"github.com/aaravmahajanofficial/storefront-cart/internal/cart"
	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
)

// CartPopup is the cart review surface. Every read goes back to the store.
type CartPopup struct {
	cart     Cart
	notifier notify.Notifier

	mu           sync.Mutex
	clearPending bool
}

func NewCartPopup(cart Cart, notifier notify.Notifier) *CartPopup {
	return &CartPopup{
		cart:     cart,
		notifier: notifierOrDiscard(notifier),
	}
}

func (c *CartPopup) Items(ctx context.Context) []models.CartLineView {
	return cart.View(c.cart.Lines(ctx)).Items
}

func (c *CartPopup) TotalItems(ctx context.Context) int {
	return cart.TotalItems(c.cart.Lines(ctx))
}

func (c *CartPopup) TotalPrice(ctx context.Context) float64 {
	return cart.TotalPrice(c.cart.Lines(ctx))
}

func (c *CartPopup) View(ctx context.Context) models.CartView {
	return cart.View(c.cart.Lines(ctx))
}

// ChangeQuantity rejects negative quantities itself; stock limits are
// enforced by the store.
func (c *CartPopup) ChangeQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		err := errors.InvalidQuantityError("Quantity cannot be negative")
		c.notifier.Notify(ctx, notify.ForError(err))

		return err
	}

	if err := c.cart.UpdateQuantity(ctx, id, quantity); err != nil {
		c.notifier.Notify(ctx, notify.ForError(err))
		return err
	}

	if quantity == 0 {
		c.notifier.Notify(ctx, notify.Success("Item removed from cart"))
	}

	return nil
}

func (c *CartPopup) RemoveItem(ctx context.Context, id int64) error {
	if err := c.cart.RemoveItem(ctx, id); err != nil {
		c.notifier.Notify(ctx, notify.ForError(err))
		return err
	}

	c.notifier.Notify(ctx, notify.Success("Item removed from cart"))

	return nil
}

// RequestClear asks for confirmation; nothing is removed yet.
func (c *CartPopup) RequestClear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearPending = true
}

func (c *CartPopup) CancelClear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearPending = false
}

func (c *CartPopup) ClearPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clearPending
}

// ConfirmClear empties the cart if a clear was requested. The pending flag
// is dropped either way.
func (c *CartPopup) ConfirmClear(ctx context.Context) error {
	c.mu.Lock()
	pending := c.clearPending
	c.clearPending = false
	c.mu.Unlock()

	if !pending {
		return nil
	}

	if err := c.cart.ClearCart(ctx); err != nil {
		c.notifier.Notify(ctx, notify.ForError(err))
		return err
	}

	c.notifier.Notify(ctx, notify.Success("Cart cleared"))

	return nil
}

// Checkout reports whether the shopper may move on to checkout.
func (c *CartPopup) Checkout(ctx context.Context) error {
	if _, ok := c.cart.ActingUser(ctx); !ok {
		return AuthRequiredError("Please log in to checkout")
	}

	if len(c.cart.Lines(ctx)) == 0 {
		return errors.BadRequestError("Your cart is empty")
	}

	return nil
}
