// Package jobs runs background work once per active tenant. Every tenant is
// handled in its own tenant-scoped transaction opened by dbctx.WithTenantTx,
// so jobs see exactly the rows row-level security grants that tenant.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/clinickit/pkg/dbctx"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// TenantLister lists the tenants a job iterates.
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Tenant, error)
}

// Task is the per-tenant unit of work. ctx carries the tenant lease.
type Task func(ctx context.Context, t tenant.Tenant) error

// Runner executes one named task for every active tenant on a schedule.
type Runner struct {
	name     string
	pool     dbctx.Pool
	tenants  TenantLister
	task     Task
	schedule Schedule
	now      func() time.Time
	log      *slog.Logger
	txOpts   []dbctx.Option
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTxOptions passes options to every dbctx.WithTenantTx call.
func WithTxOptions(opts ...dbctx.Option) Option {
	return func(r *Runner) {
		r.txOpts = append(r.txOpts, opts...)
	}
}

// NewRunner creates a runner.
func NewRunner(name string, pool dbctx.Pool, tenants TenantLister, schedule Schedule, task Task, opts ...Option) (*Runner, error) {
	if task == nil {
		return nil, ErrNoTask
	}
	if schedule == nil {
		return nil, ErrNoSchedule
	}
	if pool == nil || tenants == nil {
		return nil, ErrInvalidConfig
	}
	r := &Runner{
		name:     name,
		pool:     pool,
		tenants:  tenants,
		task:     task,
		schedule: schedule,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("jobs"), slog.String("job", name))
	return r, nil
}

// RunOnce runs the task for every active tenant. A failing tenant does not
// stop the others; all failures are joined into the returned error.
func (r *Runner) RunOnce(ctx context.Context) error {
	tenants, err := r.tenants.ListActive(ctx)
	if err != nil {
		return errors.Join(ErrListTenants, err)
	}

	var errs []error
	for _, t := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := r.now()
		err := dbctx.WithTenantTx(ctx, r.pool, t.ID, func(ctx context.Context) error {
			return r.task(tenant.WithTenant(ctx, &t), t)
		}, r.txOpts...)
		if err != nil {
			r.log.ErrorContext(ctx, "tenant job failed",
				logger.TenantID(t.ID), slog.String("tenant_slug", t.Slug), logger.Error(err))
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrTenantJob, t.Slug, err))
			continue
		}
		r.log.DebugContext(ctx, "tenant job done",
			logger.TenantID(t.ID), logger.Duration(r.now().Sub(start)))
	}

	r.log.InfoContext(ctx, "job run finished",
		slog.Int("tenants", len(tenants)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Start runs the task on its schedule until ctx is cancelled. Failures are
// logged and the next run happens on schedule; there are no retries.
func (r *Runner) Start(ctx context.Context) error {
	r.log.InfoContext(ctx, "job scheduled", slog.String("schedule", r.schedule.String()))
	for {
		wait := max(r.schedule.Next(r.now()).Sub(r.now()), 0)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.WarnContext(ctx, "job run completed with errors", logger.Error(err))
		}
	}
}
