// Package testutils builds requests the way the router and auth middleware
// would hand them to a handler.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
)

type RequestOption func(*http.Request) *http.Request

// AsUser attaches claims as if a valid bearer token for userID had been presented.
func AsUser(userID models.UserID) RequestOption {
	return func(r *http.Request) *http.Request {
		return r.WithContext(ContextAs(r.Context(), userID))
	}
}

// PathValue fills a wildcard the mux would normally extract.
func PathValue(name, value string) RequestOption {
	return func(r *http.Request) *http.Request {
		r.SetPathValue(name, value)
		return r
	}
}

// NewRequest returns a request carrying a silent request logger. Without
// AsUser it is anonymous.
func NewRequest(method, target string, body io.Reader, opts ...RequestOption) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(middleware.WithLogger(req.Context(), slog.New(slog.DiscardHandler)))

	for _, opt := range opts {
		req = opt(req)
	}

	return req
}

func ContextAs(ctx context.Context, userID models.UserID) context.Context {
	return middleware.WithClaims(ctx, &models.Claims{UserID: userID, Email: "shopper@example.com"})
}
