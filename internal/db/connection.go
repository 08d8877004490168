// Package db contains code for connecting to PostgreSQL endpoints described
// by resolved connection details.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/svcbind/svcbind/pkg/details"
)

const (
	defaultMaxConns       = 25
	defaultMinConns       = 2
	defaultMaxConnLife    = 5 * time.Minute
	defaultConnectTimeout = 10 * time.Second
)

// Option configures pool construction.
type Option func(*poolConfig) error

// poolConfig collects pool settings before the pgx config is built.
type poolConfig struct {
	maxConns       int32
	minConns       int32
	maxConnLife    time.Duration
	connectTimeout time.Duration
}

// WithMaxConns sets the maximum number of pooled connections.
func WithMaxConns(n int32) Option {
	return func(cfg *poolConfig) error {
		if n < 1 {
			return fmt.Errorf("max connections must be positive")
		}
		cfg.maxConns = n
		return nil
	}
}

// WithConnectTimeout sets the timeout for establishing a connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(cfg *poolConfig) error {
		if d <= 0 {
			return fmt.Errorf("connect timeout must be positive")
		}
		cfg.connectTimeout = d
		return nil
	}
}

// BuildConfig translates Postgres connection details into a pgx pool
// configuration.
func BuildConfig(d *details.Postgres, opts ...Option) (*pgxpool.Config, error) {
	if d == nil {
		return nil, fmt.Errorf("connection details are required")
	}
	if d.Host == "" {
		return nil, fmt.Errorf("connection details have no host")
	}

	cfg := &poolConfig{
		maxConns:       defaultMaxConns,
		minConns:       defaultMinConns,
		maxConnLife:    defaultMaxConnLife,
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(d.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = cfg.maxConns
	poolCfg.MinConns = cfg.minConns
	poolCfg.MaxConnLifetime = cfg.maxConnLife
	poolCfg.ConnConfig.ConnectTimeout = cfg.connectTimeout

	return poolCfg, nil
}

// Connect opens a connection pool for the given details and verifies it with
// a ping. The caller owns the returned pool and must close it.
func Connect(ctx context.Context, d *details.Postgres, opts ...Option) (*pgxpool.Pool, error) {
	poolCfg, err := BuildConfig(d, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, poolCfg.ConnConfig.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database at %s: %w", d.Addr(), err)
	}

	return pool, nil
}
