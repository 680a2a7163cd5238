package dbctx

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type (
	leaseKey struct{}
	txKey    struct{}
)

// WithLease binds the lease to ctx. Everything called with the returned
// context shares the lease's connection and transaction.
func WithLease(ctx context.Context, l *Lease) context.Context {
	return context.WithValue(ctx, leaseKey{}, l)
}

// LeaseFromContext returns the lease bound to ctx.
func LeaseFromContext(ctx context.Context) (*Lease, bool) {
	l, ok := ctx.Value(leaseKey{}).(*Lease)
	return l, ok && l != nil
}

// withTx binds a nested transaction started by DB.InTx.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the innermost ambient transaction: a savepoint or
// transaction opened by DB.InTx, else the lease transaction.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return tx, true
	}
	if l, ok := LeaseFromContext(ctx); ok {
		return l.Tx(), true
	}
	return nil, false
}

// MarkRollback asks for the lease bound to ctx to be rolled back when the
// request finishes, even though the handler completes normally.
// It reports whether a lease was found.
func MarkRollback(ctx context.Context) bool {
	l, ok := LeaseFromContext(ctx)
	if ok {
		l.MarkRollback()
	}
	return ok
}

// Commit commits the lease bound to ctx right away instead of after the
// response. Handlers that must not acknowledge a write before it is durable
// call it before writing the response and answer with an error when it
// fails. The transaction is closed afterwards: later statements fail with
// pgx.ErrTxClosed and the middleware only releases the connection.
func Commit(ctx context.Context) error {
	l, ok := LeaseFromContext(ctx)
	if !ok {
		return ErrNoLease
	}
	return l.Commit(ctx)
}

// TenantID returns the tenant the lease bound to ctx was opened for. It is
// false without a lease and for super-admin leases.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	l, ok := LeaseFromContext(ctx)
	if !ok || l.Identity().TenantID == nil {
		return uuid.Nil, false
	}
	return *l.Identity().TenantID, true
}
