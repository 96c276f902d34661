package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaravmahajanofficial/storefront-cart/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-cart/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cart/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cart/internal/cart"
	"github.com/aaravmahajanofficial/storefront-cart/internal/checkout"
	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/aaravmahajanofficial/storefront-cart/internal/health"
	"github.com/aaravmahajanofficial/storefront-cart/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cart/internal/notify"
	"github.com/aaravmahajanofficial/storefront-cart/internal/ratelimit"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage/postgres"
	"github.com/aaravmahajanofficial/storefront-cart/internal/tracing"
	"github.com/aaravmahajanofficial/storefront-cart/pkg/catalog"
	"github.com/aaravmahajanofficial/storefront-cart/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, &cfg.OTel)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	persister, closePersister, err := newPersister(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the cart storage", slog.String("backend", cfg.Persistence.Backend), slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer closePersister()

	store := cart.New(cart.IdentityFunc(middleware.CurrentUser), cart.WithPersister(persister))
	if err := store.Restore(ctx); err != nil {
		slog.Warn("⚠️ Starting with empty carts", slog.String("error", err.Error()))
	}

	catalogClient := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)

	checkoutOpts := []checkout.Option{
		checkout.WithRetry(cfg.Checkout.RetryAttempts, cfg.Checkout.RetryInterval),
		checkout.WithNotifier(notify.Logger{}),
	}
	if cfg.SendGrid.APIKey != "" {
		checkoutOpts = append(checkoutOpts, checkout.WithMailer(sendgrid.New(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)))
	}

	checkoutService := checkout.NewService(store, catalogClient, checkoutOpts...)

	cartHandler := handlers.NewCartHandler(store, catalogClient)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	limit := func(_ string, next http.HandlerFunc) http.HandlerFunc { return next }

	if cfg.RateLimit.Enabled {
		limiterClient, err := cache.NewRedisClient(ctx, &cfg.RedisConnect)
		if err != nil {
			slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer limiterClient.Close()

		limiter := ratelimit.New(limiterClient, &cfg.RateLimit)
		limit = func(scope string, next http.HandlerFunc) http.HandlerFunc { return limiter.Limit(scope, next) }
	}

	healthChecker, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error setting up health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("backend", cfg.Persistence.Backend))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Optional(cartHandler.GetCart()))
	routerMux.HandleFunc("GET /api/v1/cart/checkout", authMiddleware.Optional(cartHandler.CheckoutReady()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(limit("cart", cartHandler.AddItem())))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{id}", authMiddleware.Authenticate(limit("cart", cartHandler.UpdateQuantity())))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(limit("checkout", checkoutHandler.PlaceOrder())))
	routerMux.HandleFunc("GET /api/v1/checkout/last", authMiddleware.Authenticate(checkoutHandler.LastOrder()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthChecker.Handler())

	// Middleware chaining; metrics reads the matched pattern, so it sits
	// directly on the mux.
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, cfg.OTel.ServiceName)

	server := http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.HTTPServer.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}

// newPersister opens the configured backend. The returned func releases it.
func newPersister(ctx context.Context, cfg *config.Config) (storage.Persister, func(), error) {
	switch cfg.Persistence.Backend {
	case config.BackendRedis:
		client, err := cache.NewRedisClient(ctx, &cfg.RedisConnect)
		if err != nil {
			return nil, nil, err
		}

		redisCache := cache.NewRedisCache(client, &cfg.Cache)

		return storage.NewCachePersister(redisCache, cfg.Persistence.Namespace, cfg.Persistence.TTL), func() {
			if err := redisCache.Close(); err != nil {
				slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
			}
		}, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}

		persister := postgres.New(db, cfg.Persistence.Namespace)
		if err := persister.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return persister, func() {
			if err := db.Close(); err != nil {
				slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
			} else {
				slog.Info("✅ Database connection closed")
			}
		}, nil

	case config.BackendMemory:
		return storage.NewMemory(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
}
