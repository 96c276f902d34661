package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/controllers"
	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ProductSource fetches the current catalog record for a product.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type CartResponse struct {
	Cart    models.CartView `json:"cart"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

type CartHandler struct {
	cart      controllers.Cart
	products  ProductSource
	validator *validator.Validate
}

func NewCartHandler(cart controllers.Cart, products ProductSource) *CartHandler {
	return &CartHandler{
		cart:      cart,
		products:  products,
		validator: validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		popup := controllers.NewCartPopup(h.cart, notify.Discard)

		response.Success(w, http.StatusOK, CartResponse{Cart: popup.View(r.Context())})
	}
}

// AddItem reserves product_id with the catalog stock fetched right now.
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := middleware.LoggerFromContext(ctx)

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if req.Quantity == 0 {
			req.Quantity = 1
		}

		product, err := h.products.GetProduct(ctx, req.ProductID)
		if err != nil {
			fail(w, r, "add_item", err, nil)
			return
		}

		recorder, notifier := noticesFor()
		card := controllers.NewProductCard(h.cart, *product, notifier)

		if !card.SetLocalQuantity(ctx, req.Quantity) {
			// same answer the store gives for this reservation
			err := appErrors.StockExceededError(product.Stock)
			if product.Stock <= 0 {
				err = appErrors.OutOfStockError()
			}

			notifier.Notify(ctx, notify.ForError(err))
			fail(w, r, "add_item", err, recorder.Notices())

			return
		}

		if err := card.Commit(ctx); err != nil {
			fail(w, r, "add_item", err, recorder.Notices())
			return
		}

		metrics.RecordCartOperation("add_item", nil)
		logger.Info("Item added to cart", slog.Int64("product_id", product.ID), slog.Int("quantity", req.Quantity))

		popup := controllers.NewCartPopup(h.cart, notify.Discard)
		response.Success(w, http.StatusOK, CartResponse{Cart: popup.View(ctx), Notices: recorder.Notices()})
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid product ID").WithError(err))
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		recorder, notifier := noticesFor()
		popup := controllers.NewCartPopup(h.cart, notifier)

		if err := popup.ChangeQuantity(ctx, id, *req.Quantity); err != nil {
			fail(w, r, "update_quantity", err, recorder.Notices())
			return
		}

		metrics.RecordCartOperation("update_quantity", nil)
		response.Success(w, http.StatusOK, CartResponse{Cart: popup.View(ctx), Notices: recorder.Notices()})
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid product ID").WithError(err))
			return
		}

		recorder, notifier := noticesFor()
		popup := controllers.NewCartPopup(h.cart, notifier)

		if err := popup.RemoveItem(ctx, id); err != nil {
			fail(w, r, "remove_item", err, recorder.Notices())
			return
		}

		metrics.RecordCartOperation("remove_item", nil)
		response.Success(w, http.StatusOK, CartResponse{Cart: popup.View(ctx), Notices: recorder.Notices()})
	}
}

// CheckoutReady answers 204 when the acting shopper may proceed to checkout.
func (h *CartHandler) CheckoutReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder, notifier := noticesFor()
		popup := controllers.NewCartPopup(h.cart, notifier)

		if err := popup.Checkout(r.Context()); err != nil {
			fail(w, r, "checkout_ready", err, recorder.Notices())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearCart is the confirmation step; the client asks the shopper first.
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		recorder, notifier := noticesFor()
		popup := controllers.NewCartPopup(h.cart, notifier)

		popup.RequestClear()

		if err := popup.ConfirmClear(ctx); err != nil {
			fail(w, r, "clear_cart", err, recorder.Notices())
			return
		}

		metrics.RecordCartOperation("clear_cart", nil)
		response.Success(w, http.StatusOK, CartResponse{Cart: popup.View(ctx), Notices: recorder.Notices()})
	}
}
