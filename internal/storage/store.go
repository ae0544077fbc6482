// Package storage is the Postgres implementation of the booking engine's
// persistence ports. One Store type serves both pooled and transactional
// access: the querier it wraps is either the shared pool or one pgx.Tx.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/libs/db"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	q querier
}

func NewStore(pool *db.Pool) *Store {
	return &Store{q: pool.Pool}
}

// TxRunner opens transactions on the pool and hands the callback a Store bound
// to the transaction, so every write inside commits or rolls back together.
type TxRunner struct {
	pool *db.Pool
}

func NewTxRunner(pool *db.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s booking.Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &Store{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// WithCalendarLock runs fn in a transaction that holds the calendar's row lock
// for its whole duration. Concurrent bookings on the same calendar queue here,
// so the availability a caller reads inside fn already reflects every booking
// that committed before it acquired the lock.
func (r *TxRunner) WithCalendarLock(ctx context.Context, calendarID string, fn func(ctx context.Context, s booking.Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id::text FROM calendars WHERE id = $1 FOR UPDATE
	`, calendarID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.ErrCalendarNotFound
	}
	if err != nil {
		return fmt.Errorf("lock calendar: %w", err)
	}

	if err := fn(ctx, &Store{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
