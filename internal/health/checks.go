package health

import (
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

// NewHealthHandler checks the store the carts are mirrored into. The memory
// backend has no external dependency to probe.
func NewHealthHandler(cfg *config.Config) (*health.Health, error) {
	opts := []health.Option{
		health.WithComponent(health.Component{
			Name:    "storefront-cart",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
	}

	switch cfg.Persistence.Backend {
	case config.BackendPostgres:
		opts = append(opts, health.WithChecks(health.Config{
			Name:    "database",
			Timeout: 3 * time.Second,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		}))
	case config.BackendRedis:
		opts = append(opts, health.WithChecks(health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		}))
	}

	h, err := health.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
