package dbctx

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Fallback is the shared, tenant-unaware pool used when no request
// transaction is bound. *pgxpool.Pool satisfies it.
type Fallback interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is the single entry point for data access. Call sites pass only a
// context; DB decides whether that means the request transaction or the
// shared pool.
type DB struct {
	fallback Fallback
}

// New creates the facade over the shared pool.
func New(fallback Fallback) *DB {
	return &DB{fallback: fallback}
}

// Querier returns the ambient transaction bound to ctx, or the shared pool
// when there is none. Code running without a request (jobs, bootstrap) gets
// the pool and is responsible for its own tenant scoping.
//
// Once a lease has finished its transaction stays in the context, so work
// that outlives the request fails with pgx.ErrTxClosed instead of silently
// continuing on the unscoped pool.
func (d *DB) Querier(ctx context.Context) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return d.fallback
}

// Scoped reports whether ctx carries a request or job transaction.
func (d *DB) Scoped(ctx context.Context) bool {
	_, ok := TxFromContext(ctx)
	return ok
}

// Run invokes fn against the connection selected by Querier.
func (d *DB) Run(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return fn(ctx, d.Querier(ctx))
}

// InTx runs fn in a transaction: a savepoint inside the ambient transaction
// when there is one, otherwise a new transaction on the shared pool. fn's
// context carries the new transaction, so nested calls through the facade
// use it too.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var beginner interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	} = d.fallback
	if tx, ok := TxFromContext(ctx); ok {
		beginner = tx
	}
	if beginner == nil {
		return ErrNoFallback
	}
	return pgx.BeginFunc(ctx, beginner, func(tx pgx.Tx) error {
		return fn(withTx(ctx, tx), tx)
	})
}

// Query runs a read through the facade and scans the result with scan.
func Query[T any](ctx context.Context, d *DB, sql string, scan pgx.RowToFunc[T], args ...any) ([]T, error) {
	rows, err := d.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}
