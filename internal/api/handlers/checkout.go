package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/checkout"
	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
)

type OrderResponse struct {
	Order   *models.Order   `json:"order"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

type CheckoutHandler struct {
	checkout *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

// PlaceOrder leaves validation to the checkout service, which owns the
// payment and shipping rules.
func (h *CheckoutHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PlaceOrderRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))
			return
		}

		recorder, notifier := noticesFor()
		ctx := notify.WithNotifier(r.Context(), notifier)

		order, err := h.checkout.PlaceOrder(ctx, req.ShippingInfo, req.PaymentInfo)
		if err != nil {
			middleware.LoggerFromContext(ctx).Warn("Checkout failed", slog.String("error", err.Error()))
			writeError(w, err, recorder.Notices())

			return
		}

		response.Success(w, http.StatusCreated, OrderResponse{Order: order, Notices: recorder.Notices()})
	}
}

func (h *CheckoutHandler) LastOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := h.checkout.LastOrder(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, OrderResponse{Order: order})
	}
}
