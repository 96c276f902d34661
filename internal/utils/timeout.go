package utils

import (
	"context"
	"time"
)

// StoreTimeout bounds a single round trip to a cart persistence backend.
const StoreTimeout = 5 * time.Second

// StoreContext derives a context for a persistence call. With detach set, the
// call outlives the caller's cancellation and is bounded by StoreTimeout alone.
func StoreContext(ctx context.Context, detach bool) (context.Context, context.CancelFunc) {
	if detach {
		ctx = context.WithoutCancel(ctx)
	}

	return context.WithTimeout(ctx, StoreTimeout)
}
