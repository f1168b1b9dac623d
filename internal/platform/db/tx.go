package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// writeTxOptions keeps writers at READ COMMITTED: concurrent writers queue
// on the FOR UPDATE / FOR SHARE row locks and then read the committed row.
var writeTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx runs fn in a transaction and commits when fn returns nil. The
// transaction is never replayed; see Retryable.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, writeTxOptions)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}

// Retryable reports whether err aborted a transaction that the caller may
// safely resubmit: serialization_failure (40001) or deadlock_detected (40P01).
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
