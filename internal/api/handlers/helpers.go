package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// noticesFor collects the notices of one request and mirrors them to the log.
func noticesFor() (*notify.Recorder, notify.Notifier) {
	recorder := &notify.Recorder{}
	return recorder, notify.Multi(recorder, notify.Logger{})
}

// NoticesResponse carries the notices raised by a failed request.
type NoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

// fail records the failed operation and writes the error response along with
// any notices raised on the way.
func fail(w http.ResponseWriter, r *http.Request, operation string, err error, notices []notify.Notice) {
	metrics.RecordCartOperation(operation, err)

	logger := middleware.LoggerFromContext(r.Context())
	logger.Warn("Cart operation failed", slog.String("operation", operation), slog.String("error", err.Error()))

	writeError(w, err, notices)
}

func writeError(w http.ResponseWriter, err error, notices []notify.Notice) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		response.ValidationError(w, validationErrs)
		return
	}

	if len(notices) == 0 {
		response.Error(w, err)
		return
	}

	response.ErrorWithData(w, err, NoticesResponse{Notices: notices})
}
