// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"food-ordering-agent/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultPostgresOpenConns = 10
	connMaxLifetime          = 5 * time.Minute
)

// PostgresClient holds the pool behind the order book. Opening it does not dial;
// callers Ping before relying on it.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres host and database are required")
	}
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	open := cfg.MaxConnections
	if open <= 0 {
		open = defaultPostgresOpenConns
	}
	idle := cfg.MaxIdle
	if idle <= 0 || idle > open {
		idle = open / 2
	}
	db.SetMaxOpenConns(open)
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxLifetime)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	ctx, cancel := withPingTimeout(ctx)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
