package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so the sentinels below
// work with errors.Is regardless of message or wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeThirdPartyError = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeOutOfStock       = "OUT_OF_STOCK"
	ErrCodeStockExceeded    = "STOCK_EXCEEDED"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeItemNotFound     = "ITEM_NOT_FOUND"
)

// statusFor is the HTTP status each code answers with.
var statusFor = map[string]int{
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeThirdPartyError:  http.StatusBadGateway,
	ErrCodeTooManyRequests:  http.StatusTooManyRequests,
	ErrCodeNotAuthenticated: http.StatusUnauthorized,
	ErrCodeOutOfStock:       http.StatusConflict,
	ErrCodeStockExceeded:    http.StatusConflict,
	ErrCodeInvalidQuantity:  http.StatusBadRequest,
	ErrCodeItemNotFound:     http.StatusNotFound,
}

// coded builds an AppError whose status follows from its code.
func coded(code, message string) *AppError {
	status, ok := statusFor[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	return NewAppError(code, message, status)
}

// Sentinels for errors.Is.
var (
	ErrNotAuthenticated = &AppError{Code: ErrCodeNotAuthenticated}
	ErrOutOfStock       = &AppError{Code: ErrCodeOutOfStock}
	ErrStockExceeded    = &AppError{Code: ErrCodeStockExceeded}
	ErrInvalidQuantity  = &AppError{Code: ErrCodeInvalidQuantity}
	ErrItemNotFound     = &AppError{Code: ErrCodeItemNotFound}
	ErrUnauthorized     = &AppError{Code: ErrCodeUnauthorized}
)

func ValidationError(message string) *AppError {
	return coded(ErrCodeValidation, message)
}

func BadRequestError(message string) *AppError {
	return coded(ErrCodeBadRequest, message)
}

func NotFoundError(message string) *AppError {
	return coded(ErrCodeNotFound, message)
}

func UnauthorizedError(message string) *AppError {
	return coded(ErrCodeUnauthorized, message)
}

func InternalError(message string) *AppError {
	return coded(ErrCodeInternal, message)
}

func ThirdPartyError(message string) *AppError {
	return coded(ErrCodeThirdPartyError, message)
}

func TooManyRequestsError(message string) *AppError {
	return coded(ErrCodeTooManyRequests, message)
}

func NotAuthenticatedError(message string) *AppError {
	return coded(ErrCodeNotAuthenticated, message)
}

func OutOfStockError() *AppError {
	return coded(ErrCodeOutOfStock, "This item is out of stock")
}

// StockLimit carries the amount that was available when a reservation was
// refused.
type StockLimit struct {
	Available int
}

func (s *StockLimit) Error() string {
	return fmt.Sprintf("available stock: %d", s.Available)
}

func StockExceededError(available int) *AppError {
	return coded(ErrCodeStockExceeded, fmt.Sprintf("Only %d items available in stock", available)).
		WithError(&StockLimit{Available: available})
}

func InvalidQuantityError(message string) *AppError {
	return coded(ErrCodeInvalidQuantity, message)
}

func ItemNotFoundError(message string) *AppError {
	return coded(ErrCodeItemNotFound, message)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// AvailableStock reports the available amount attached to a stock-exceeded error.
func AvailableStock(err error) (int, bool) {
	var limit *StockLimit

	if errors.As(err, &limit) {
		return limit.Available, true
	}

	return 0, false
}
