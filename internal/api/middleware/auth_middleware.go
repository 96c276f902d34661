package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey uuid.UUID

var UserContextKey = contextKey(uuid.New())

type AuthMiddleware struct {
	jwtKey []byte
}

func NewAuthMiddleware(jwtKey []byte) *AuthMiddleware {
	return &AuthMiddleware{jwtKey: jwtKey}
}

// Authenticate rejects requests without a valid bearer token and puts the
// decoded claims into the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		claims, appErr := m.parse(r, logger)
		if appErr != nil {
			response.Error(w, appErr)
			return
		}

		ctx := WithClaims(r.Context(), claims)

		requestScopedLogger := logger.With(slog.Int64("userId", int64(claims.UserID)))
		ctx = WithLogger(ctx, requestScopedLogger)

		requestScopedLogger.Info("User authenticated")

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Optional decodes a bearer token when one is sent but lets anonymous
// requests through, so that downstream code can answer NOT_AUTHENTICATED
// itself.
func (m *AuthMiddleware) Optional(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		m.Authenticate(next).ServeHTTP(w, r)
	}
}

func (m *AuthMiddleware) parse(r *http.Request, logger *slog.Logger) (*models.Claims, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("Missing authorization header")
		return nil, errors.UnauthorizedError("Authorization header is required")
	}

	// Token is of format : "Bearer <token>"
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		logger.Warn("Invalid authorization header format")
		return nil, errors.UnauthorizedError("Invalid authorization format")
	}

	claims := &models.Claims{}

	var methodErr *errors.AppError

	token, err := jwt.ParseWithClaims(tokenParts[1], claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Error("Unexpected signing method used in JWT", slog.Any("alg", t.Header["alg"]))
			methodErr = errors.BadRequestError("unexpected signing method")

			return nil, methodErr
		}

		return m.jwtKey, nil
	})

	switch {
	case methodErr != nil:
		return nil, methodErr
	case err != nil:
		logger.Warn("JWT parsing failed", slog.String("error", err.Error()))
		return nil, errors.UnauthorizedError("Invalid or expired token")
	case !token.Valid:
		logger.Warn("Invalid token")
		return nil, errors.UnauthorizedError("Invalid token")
	case claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()):
		logger.Warn("Expired token", slog.Int64("userId", int64(claims.UserID)))
		return nil, errors.UnauthorizedError("Token expired")
	case claims.UserID <= 0:
		logger.Warn("Token carries no user")
		return nil, errors.UnauthorizedError("Invalid token")
	}

	return claims, nil
}

func WithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// CurrentUser reports the authenticated user of the request, if any. It is
// the identity source the cart store consults.
func CurrentUser(ctx context.Context) (models.UserID, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	if !ok || claims == nil {
		return 0, false
	}

	return claims.UserID, true
}
