// Package postgres mirrors the cart snapshot into a Postgres key-value table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/aaravmahajanofficial/storefront-cart/internal/storage"
	"github.com/aaravmahajanofficial/storefront-cart/internal/utils"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS kv_store (
		namespace  TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type Persister struct {
	db        *sql.DB
	namespace string
}

// Open connects through otelsql so every query is traced.
func Open(ctx context.Context, cfg *config.Database) (*sql.DB, error) {
	db, err := otelsql.Open("postgres", cfg.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := utils.StoreContext(ctx, false)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func New(db *sql.DB, namespace string) *Persister {
	if namespace == "" {
		namespace = storage.DefaultNamespace
	}

	return &Persister{db: db, namespace: namespace}
}

func (p *Persister) Migrate(ctx context.Context) error {
	ctx, cancel := utils.StoreContext(ctx, false)
	defer cancel()

	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return nil
}

func (p *Persister) Load(ctx context.Context) (models.UserCarts, error) {
	ctx, cancel := utils.StoreContext(ctx, false)
	defer cancel()

	var raw []byte

	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE namespace = $1`, p.namespace).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserCarts{}, nil
		}

		return nil, fmt.Errorf("failed to load carts: %w", err)
	}

	carts := models.UserCarts{}
	if err := json.Unmarshal(raw, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode stored carts: %w", err)
	}

	return carts, nil
}

func (p *Persister) Save(ctx context.Context, carts models.UserCarts) error {
	data, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("failed to encode carts: %w", err)
	}

	ctx, cancel := utils.StoreContext(ctx, false)
	defer cancel()

	query := `
		INSERT INTO kv_store (namespace, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (namespace) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := p.db.ExecContext(ctx, query, p.namespace, data); err != nil {
		return fmt.Errorf("failed to save carts: %w", err)
	}

	return nil
}
