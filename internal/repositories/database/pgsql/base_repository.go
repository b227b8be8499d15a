package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is what both *pgxpool.Pool and pgx.Tx offer.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// db returns the transaction carried by ctx, or the pool when there is none.
func (r *BaseRepository) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.Pool
}

// atomically runs fn on the ambient transaction, or on a fresh one when ctx has none.
func (r *BaseRepository) atomically(ctx context.Context, fn func(q querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(tx)
	}
	return pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// PgxTxManager implements portsrepo.TransactionManager on a pgx pool.
type PgxTxManager struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxManager creates a transaction manager. A positive timeout bounds every outermost
// transaction.
func NewTxManager(pool *pgxpool.Pool, timeout time.Duration) *PgxTxManager {
	return &PgxTxManager{pool: pool, timeout: timeout}
}

var _ portsrepo.TransactionManager = (*PgxTxManager)(nil)

// WithinTx runs fn in a transaction, or in a savepoint when ctx already carries one.
func (m *PgxTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if outer, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		sp, err := outer.Begin(ctx)
		if err != nil {
			return mapError(err, "begin savepoint")
		}
		if err := fn(context.WithValue(ctx, txKey{}, sp)); err != nil {
			_ = sp.Rollback(ctx)
			return err
		}
		return mapError(sp.Commit(ctx), "release savepoint")
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError(err, "begin transaction")
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return mapError(tx.Commit(ctx), "commit transaction")
}

// mapError translates driver errors into apperrors sentinels. It is the only place the
// store's error codes are interpreted.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s (%s)", apperrors.ErrDuplicate, op, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s references a missing row (%s)", apperrors.ErrValidation, op, pgErr.ConstraintName)
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return fmt.Errorf("%w: %s: %s", apperrors.ErrConflict, op, pgErr.Message)
		case "57014": // query_canceled, statement_timeout
			return fmt.Errorf("%w: %s: %s", apperrors.ErrStorageUnavailable, op, pgErr.Message)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || errors.As(err, &connErr) {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
