// Package controllers holds the UI-facing orchestration over the cart store:
// a per-product card staging local quantities and the cart review popup.
package controllers

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
)

// Cart is the part of *cart.Store the controllers drive.
type Cart interface {
	ActingUser(ctx context.Context) (models.UserID, bool)
	Lines(ctx context.Context) []models.CartLine
	GetItemQuantity(ctx context.Context, id int64) int
	AddItemWithQuantity(ctx context.Context, item models.CartItem, quantity int) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	RemoveItem(ctx context.Context, id int64) error
	ClearCart(ctx context.Context) error
}

// AuthRequiredError tells the caller to send the shopper to the login page.
func AuthRequiredError(message string) *errors.AppError {
	return errors.UnauthorizedError(message)
}

func notifierOrDiscard(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Discard
	}

	return n
}
