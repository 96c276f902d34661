// Package utils holds the request plumbing shared by the HTTP handlers.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds the request bodies accepted by the cart API.
const maxBodyBytes = 1 << 20

var (
	ErrEmptyBody    = errors.New("request body cannot be empty")
	ErrBodyTooLarge = errors.New("request body too large")
)

// DecodeJSONBody reads at most maxBodyBytes and decodes a single JSON value
// into dest. Trailing data after the value is rejected.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer r.Body.Close()

	body := &io.LimitedReader{R: r.Body, N: maxBodyBytes + 1}
	dec := json.NewDecoder(body)

	err := dec.Decode(dest)
	switch {
	case body.N <= 0:
		return ErrBodyTooLarge
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	case err != nil:
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	if dec.More() {
		return errors.New("invalid JSON format: unexpected data after the request object")
	}

	return nil
}

// ValidateStruct runs the validator against data. Field failures come back as
// validator.ValidationErrors so callers can render them per field.
func ValidateStruct(validate *validator.Validate, data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation error: %w", fieldErrs)
	}

	return fmt.Errorf("unexpected validation error: %w", err)
}

// ParseID reads a positive integer path parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		middleware.LoggerFromContext(r.Context()).Debug("Rejected path parameter", "name", name, "value", raw)
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}

	return id, nil
}
