package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"newsflash/domain"
	"newsflash/internal/config"
)

const DefaultTable = "kv_cache"

// Repository is a key-value snapshot store backed by a single Postgres table.
type Repository struct {
	db    *sql.DB
	table string
}

func New(db *sql.DB, table string) *Repository {
	if table == "" {
		table = DefaultTable
	}
	return &Repository{db: db, table: pq.QuoteIdentifier(table)}
}

// OpenDB connects with the pool settings used across the service and verifies the connection.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	pgURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase,
	)
	dbConn, err := sql.Open("postgres", pgURL)
	if err != nil {
		return nil, err
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetMaxIdleConns(10)
	dbConn.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}

func (r *Repository) Ensure(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+r.table+` (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT now()
)`)
	return err
}

func (r *Repository) Get(ctx context.Context, key string) (*domain.CacheData, error) {
	var raw []byte
	row := r.db.QueryRowContext(ctx, `SELECT value FROM `+r.table+` WHERE key = $1`, key)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var data domain.CacheData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return &data, nil
}

// Set upserts the snapshot. A nil snapshot deletes the row.
func (r *Repository) Set(ctx context.Context, key string, data *domain.CacheData) error {
	if data == nil {
		_, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE key = $1`, key)
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO `+r.table+` (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, raw)
	return err
}

// Utility: optional timeout wrapper
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
