package dbctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// within is the single lease lifecycle shared by Middleware,
// TokenMiddleware and WithTenantTx: open, run fn with the lease bound,
// then finish exactly once whether fn returns, fails, panics or its
// context is cancelled. Panics are re-raised after cleanup.
func (c *config) within(ctx context.Context, pool Pool, id tenant.Identity, fn func(context.Context) error) (err error) {
	lease, err := c.open(ctx, pool, id)
	if err != nil {
		return err
	}

	defer func() {
		p := recover()

		cause := err
		switch {
		case p != nil:
			cause = fmt.Errorf("%w: %v", ErrPanicked, p)
		case cause == nil && ctx.Err() != nil:
			cause = errors.Join(ErrAborted, context.Cause(ctx))
		case cause == nil && lease.marked():
			cause = ErrMarkedRollback
		}

		cctx, cancel := c.cleanupContext(ctx)
		defer cancel()

		if ferr := lease.Finish(cctx, cause); ferr != nil {
			c.log.ErrorContext(cctx, "failed to finish transaction",
				logger.Error(ferr),
				logger.Outcome(lease.Outcome().String()),
			)
			if err == nil {
				err = ferr
			}
		} else if cause != nil && lease.Outcome() == StateRolledBack {
			c.log.DebugContext(cctx, "transaction rolled back",
				slogReason(cause),
				logger.Outcome(lease.Outcome().String()),
			)
		}

		if p != nil {
			panic(p)
		}
	}()

	return fn(WithLease(ctx, lease))
}

func (l *Lease) marked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doomed
}

// WithTenantTx runs fn inside a tenant-scoped transaction outside of any
// HTTP request, for jobs that iterate tenants explicitly. fn's context
// carries the lease, so DB.Querier and friends pick it up. A nil error from
// fn commits; anything else rolls back and is returned.
func WithTenantTx(ctx context.Context, pool Pool, tenantID uuid.UUID, fn func(ctx context.Context) error, opts ...Option) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	id := tenant.Identity{TenantID: &tenantID}
	return newConfig(opts...).within(tenant.WithIdentity(ctx, id), pool, id, fn)
}

func slogReason(err error) slog.Attr {
	return slog.String("reason", err.Error())
}
