// Package notify carries human-readable outcome messages from the cart
// controllers to whatever surface shows them.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

func Success(message string) Notice {
	return Notice{Level: LevelSuccess, Message: message}
}

func Error(message string) Notice {
	return Notice{Level: LevelError, Message: message}
}

// ForError turns a cart failure into the message shown to the shopper.
func ForError(err error) Notice {
	if appErr, ok := errors.IsAppError(err); ok && appErr.Message != "" {
		return Error(appErr.Message)
	}

	return Error("Something went wrong. Please try again.")
}

type notifierKey struct{}

// WithNotifier scopes n to a single request.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

// FromContext returns the request-scoped notifier, or fallback when none was set.
func FromContext(ctx context.Context, fallback Notifier) Notifier {
	if n, ok := ctx.Value(notifierKey{}).(Notifier); ok && n != nil {
		return n
	}

	if fallback == nil {
		return Discard
	}

	return fallback
}

type discard struct{}

func (discard) Notify(context.Context, Notice) {}

// Discard drops every notice.
var Discard Notifier = discard{}

// Logger writes notices to the request-scoped logger.
type Logger struct{}

func (Logger) Notify(ctx context.Context, notice Notice) {
	logger := middleware.LoggerFromContext(ctx)

	if notice.Level == LevelError {
		logger.Warn("Cart notice", slog.String("message", notice.Message))
		return
	}

	logger.Info("Cart notice", slog.String("message", notice.Message))
}

// Recorder collects notices in order, e.g. to return them with an HTTP response.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, notice)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notice, len(r.notices))
	copy(out, r.notices)

	return out
}

// Multi fans a notice out to every notifier.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) Notify(ctx context.Context, notice Notice) {
	for _, n := range m {
		n.Notify(ctx, notice)
	}
}
