package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/aaravmahajanofficial/storefront-cart/internal/ledger"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
)

// ProductCard stages a local quantity for one product before it is reserved.
// The local quantity is independent of what the cart already holds.
type ProductCard struct {
	cart     Cart
	notifier notify.Notifier

	mu      sync.Mutex
	product models.Product
	local   int
}

func NewProductCard(cart Cart, product models.Product, notifier notify.Notifier) *ProductCard {
	return &ProductCard{
		cart:     cart,
		notifier: notifierOrDiscard(notifier),
		product:  product,
	}
}

func (p *ProductCard) Product() models.Product {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.product
}

// SetProduct swaps in a fresher catalog record and reconciles the staged quantity.
func (p *ProductCard) SetProduct(ctx context.Context, product models.Product) {
	p.mu.Lock()
	p.product = product
	p.mu.Unlock()

	p.Reconcile(ctx)
}

// CurrentQuantity is what the cart already holds for this product.
func (p *ProductCard) CurrentQuantity(ctx context.Context) int {
	return p.cart.GetItemQuantity(ctx, p.Product().ID)
}

func (p *ProductCard) RemainingStock(ctx context.Context) int {
	product := p.Product()
	return ledger.RemainingStock(product.ID, product.Stock, p.cart.Lines(ctx))
}

func (p *ProductCard) IsOutOfStock(ctx context.Context) bool {
	return ledger.IsOutOfStock(p.Product().Stock, p.RemainingStock(ctx))
}

func (p *ProductCard) LocalQuantity() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.local
}

// SetLocalQuantity stages n units. It reports false and leaves the staged
// quantity alone when n is negative or above the remaining stock.
func (p *ProductCard) SetLocalQuantity(ctx context.Context, n int) bool {
	if n < 0 || n > p.RemainingStock(ctx) {
		return false
	}

	p.mu.Lock()
	p.local = n
	p.mu.Unlock()

	return true
}

// Commit reserves the staged quantity. A failed reservation keeps the staged
// quantity unless the product has sold out in the meantime.
func (p *ProductCard) Commit(ctx context.Context) error {
	if _, ok := p.cart.ActingUser(ctx); !ok {
		err := AuthRequiredError("Please log in to add items to cart")
		p.notifier.Notify(ctx, notify.ForError(err))

		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.local <= 0 {
		return nil
	}

	if err := p.cart.AddItemWithQuantity(ctx, p.product.CartItem(), p.local); err != nil {
		// a sold-out product cannot hold a staged quantity
		remaining := ledger.RemainingStock(p.product.ID, p.product.Stock, p.cart.Lines(ctx))
		if ledger.IsOutOfStock(p.product.Stock, remaining) {
			p.local = 0
		}

		p.notifier.Notify(ctx, notify.ForError(err))

		return err
	}

	p.notifier.Notify(ctx, notify.Success(fmt.Sprintf("Added %d item(s) to cart", p.local)))
	p.local = 0

	return nil
}

// Reconcile drops the staged quantity once it can no longer be reserved.
func (p *ProductCard) Reconcile(ctx context.Context) {
	remaining := p.RemainingStock(ctx)
	outOfStock := p.IsOutOfStock(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.local > 0 && (outOfStock || p.local > remaining) {
		p.local = 0
	}
}
