package utils

import (
	"errors"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ParseAndValidate decodes the request body into dest and validates it. On
// failure the error response has already been written and it reports false.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {
	logger := middleware.LoggerFromContext(r.Context())

	if err := DecodeJSONBody(r, dest); err != nil {
		logger.Warn("Rejected request body", "error", err.Error())

		status := appErrors.BadRequestError(err.Error())
		if errors.Is(err, ErrBodyTooLarge) {
			status = appErrors.NewAppError(appErrors.ErrCodeBadRequest, err.Error(), http.StatusRequestEntityTooLarge)
		}

		response.Error(w, status)

		return false
	}

	err := ValidateStruct(validate, dest)
	if err == nil {
		return true
	}

	logger.Warn("Request failed validation", "error", err.Error())

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		response.ValidationError(w, fieldErrs)
	} else {
		response.Error(w, appErrors.ValidationError("Invalid input data").WithError(err))
	}

	return false
}
