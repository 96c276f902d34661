// Package ratelimit is a Redis sliding-window limiter for the cart write
// endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func New(client *redis.Client, cfg *config.RateLimit) *Limiter {
	return &Limiter{
		client: client,
		limit:  cfg.MaxRequests,
		window: cfg.Window,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func Key(scope, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", scope, subject)
}

// Allow records one request under key and reports whether it fits in the
// window. Each request is a member of a sorted set scored by its time in
// milliseconds; members older than the window are trimmed first. A rejected
// request is taken back out, so retrying while limited does not extend the wait.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.window.Milliseconds()

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe := l.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: member})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	attempts := count.Val()
	if attempts <= l.limit {
		return Result{Allowed: true, Remaining: l.limit - attempts}, nil
	}

	if err := l.client.ZRem(ctx, key, member).Err(); err != nil {
		return Result{}, err
	}

	oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return Result{}, err
	}

	retryAfter := l.window
	if len(oldest) > 0 {
		retryAfter = time.Duration(int64(oldest[0].Score)+l.window.Milliseconds()-nowMs) * time.Millisecond
	}

	return Result{Allowed: false, RetryAfter: max(retryAfter, 0)}, nil
}

// Limit rejects requests over the limit with 429. Requests are keyed by the
// signed-in user, falling back to the client address. Redis failures let the
// request through.
func (l *Limiter) Limit(scope string, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		result, err := l.Allow(r.Context(), Key(scope, subject(r)))
		if err != nil {
			logger.Warn("Rate limiter unavailable", slog.String("scope", scope), slog.String("error", err.Error()))
			next.ServeHTTP(w, r)

			return
		}

		if !result.Allowed {
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))

			logger.Warn("Rate limit exceeded", slog.String("scope", scope), slog.Int("retry_after", seconds))
			response.Error(w, errors.TooManyRequestsError("Too many requests. Please try again later."))

			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		next.ServeHTTP(w, r)
	}
}

func subject(r *http.Request) string {
	if userID, ok := middleware.CurrentUser(r.Context()); ok {
		return "user:" + strconv.FormatInt(int64(userID), 10)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}
