// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/go-playground/validator/v10"
)

type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// fieldMessages maps a validator tag to the sentence shown for the failing
// field. Entries with two verbs also receive the tag parameter.
var fieldMessages = map[string]string{
	"required":    "Field %s is required",
	"email":       "Field %s must be a valid email address",
	"min":         "Field %s must be at least %s",
	"gte":         "Field %s must be at least %s",
	"max":         "Field %s must be at most %s",
	"lte":         "Field %s must be at most %s",
	"gt":          "Field %s must be greater than %s",
	"oneof":       "Field %s must be one of: %s",
	"numeric":     "Field %s must contain only numbers",
	"phone":       "Field %s must be 9-11 digits",
	"card_number": "Field %s must be in format: 1234-5678-9012-3456",
	"card_expiry": "Field %s must be an unexpired MM/YY date",
	"cvv":         "Field %s must be 3-4 digits",
}

var paramTags = map[string]bool{"min": true, "gte": true, "max": true, "lte": true, "gt": true, "oneof": true}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	_ = WriteJson(w, statusCode, APIResponse{Success: true, Data: data})
}

// Error renders err. AppErrors keep their status and code; anything else is
// reported as an opaque 500.
func Error(w http.ResponseWriter, err error) {
	ErrorWithData(w, err, nil)
}

// ErrorWithData renders err like Error and also sends data, for failures that
// still have something to tell the client.
func ErrorWithData(w http.ResponseWriter, err error, data any) {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		appErr = errors.NewAppError(errors.ErrCodeInternal, "An unexpected error occurred", http.StatusInternalServerError)
	}

	body := &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	if appErr.Detail != "" {
		body.Details = []string{appErr.Detail}
	}

	_ = WriteJson(w, appErr.StatusCode, APIResponse{Data: data, Error: body})
}

// ValidationError sends one sentence per failing field.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		details = append(details, fieldMessage(fe))
	}

	_ = WriteJson(w, http.StatusBadRequest, APIResponse{
		Error: &ErrorResponse{
			Code:    errors.ErrCodeValidation,
			Message: "Validation failed",
			Details: details,
		},
	})
}

func fieldMessage(fe validator.FieldError) string {
	format, known := fieldMessages[fe.Tag()]
	switch {
	case !known:
		return fmt.Sprintf("Field %s is invalid: %s", fe.Field(), fe.Tag())
	case paramTags[fe.Tag()]:
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	default:
		return fmt.Sprintf(format, fe.Field())
	}
}
