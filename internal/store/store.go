// Package store persists users, scores and leaderboards in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osuchan/stats-api/internal/logic"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	logic.PgPool
	Begin(ctx context.Context) (pgx.Tx, error)
}

// queries implements logic.Queries on a pool or an open transaction.
type queries struct {
	db logic.PgPool
}

// Store implements logic.Store.
type Store struct {
	queries
	pool DB
}

var _ logic.Store = (*Store)(nil)

func New(pool DB) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// InTx runs fn in a transaction, committing only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(q logic.Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
}

// notFound maps pgx.ErrNoRows to logic.ErrNotFoundLocal.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, logic.ErrNotFoundLocal)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// ensureAffected reports ErrNotFoundLocal when an update touched no rows.
func ensureAffected(rows int64, what string) error {
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, logic.ErrNotFoundLocal)
	}
	return nil
}
