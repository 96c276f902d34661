// Package catalog talks to the remote product and user API
// (dummyjson-compatible).
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     *bluemonday.Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		policy: bluemonday.StrictPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StatusError records the HTTP status of a failed remote call.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote API returned status %d", e.Status)
}

// Retryable reports whether a failed call is worth repeating: network
// failures, 429 and 5xx.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}

	return err != nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product

	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product, "fetch product"); err != nil {
		return nil, err
	}

	product.Title = c.sanitize(product.Title)
	product.Description = c.sanitize(product.Description)
	product.Category = c.sanitize(product.Category)
	product.Thumbnail = safeURL(product.Thumbnail)

	return &product, nil
}

// ClearCart empties the user's cart on the remote side.
func (c *Client) ClearCart(ctx context.Context, userID models.UserID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/carts/%d", userID), nil, nil, "clear cart")
}

func (c *Client) UpdateUser(ctx context.Context, userID models.UserID, update models.UserUpdate) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d", userID), update, nil, "update user")
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, operation string) error {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return appErrors.InternalError("Failed to encode request").WithError(err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.InternalError("Failed to build request").WithError(err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.ThirdPartyError("Network error. Please check your connection and try again.").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp, operation)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.ThirdPartyError(fmt.Sprintf("Failed to %s", operation)).WithError(err)
	}

	return nil
}

func statusError(resp *http.Response, operation string) *appErrors.AppError {
	cause := &StatusError{Status: resp.StatusCode}

	var message string

	switch resp.StatusCode {
	case http.StatusBadRequest:
		message = "Invalid request: " + operation
	case http.StatusUnauthorized:
		return appErrors.UnauthorizedError("You are not authorized. Please log in again.").WithError(cause)
	case http.StatusForbidden:
		message = "You don't have permission to perform this action."
	case http.StatusNotFound:
		return appErrors.NotFoundError("The requested resource was not found.").WithError(cause)
	case http.StatusConflict:
		message = "Conflict: The operation could not be completed."
	case http.StatusTooManyRequests:
		message = "Too many requests. Please try again later."
	case http.StatusInternalServerError:
		message = "Server error. Please try again later."
	case http.StatusServiceUnavailable:
		message = "Service unavailable. Please try again later."
	default:
		var payload struct {
			Message string `json:"message"`
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Message != "" {
			message = payload.Message
		} else {
			message = fmt.Sprintf("Error %d: %s", resp.StatusCode, operation)
		}
	}

	return appErrors.ThirdPartyError(message).WithError(cause)
}

// sanitize strips markup from display text. The result is plain text, so
// entities that bluemonday escaped are decoded again.
func (c *Client) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func safeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	return u.String()
}
