package dbctx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the statement surface shared by pgx.Tx, *pgxpool.Pool and
// *pgx.Conn. Data-access code depends on this instead of a concrete type so
// the same call works inside a request transaction and in background code.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is one connection checked out of a Pool.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// Pool hands out exclusive connections. Acquire blocks while the pool is
// exhausted, which is the backpressure for concurrent requests.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// FromPgxPool adapts a pgx pool to Pool.
func FromPgxPool(p *pgxpool.Pool) Pool {
	return pgxPool{p: p}
}

type pgxPool struct {
	p *pgxpool.Pool
}

func (pp pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := pp.p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
