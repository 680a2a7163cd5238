package dbctx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// DefaultTenantSetting is the transaction-local setting read by the
// row-level security policies.
const DefaultTenantSetting = "app.current_tenant_id"

const setConfigSQL = "SELECT set_config($1, $2, true)"

// State is the lifecycle position of a Lease.
type State int

const (
	StatePending State = iota
	StateCommitted
	StateRolledBack
	StateReleased
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Lease is one pooled connection plus one open transaction, owned by a
// single request or job. Transitions go pending -> committed|rolledBack ->
// released and each is applied at most once; later calls are no-ops.
type Lease struct {
	mu       sync.Mutex
	conn     Conn
	tx       pgx.Tx
	identity tenant.Identity
	state    State
	outcome  State
	doomed   bool
	openedAt time.Time
	metrics  *Metrics
}

// Open checks out a connection, begins a transaction and, for tenant
// identities, sets the tenant setting with SET LOCAL semantics. Super-admin
// identities get a transaction without the setting. On failure everything
// acquired so far is rolled back and released, and the returned error wraps
// ErrConnectionSetup.
func Open(ctx context.Context, pool Pool, id tenant.Identity, opts ...Option) (*Lease, error) {
	return newConfig(opts...).open(ctx, pool, id)
}

func (c *config) open(ctx context.Context, pool Pool, id tenant.Identity) (*Lease, error) {
	start := time.Now()
	conn, err := pool.Acquire(ctx)
	c.metrics.observeAcquire(time.Since(start))
	if err != nil {
		c.metrics.setupFailed("acquire")
		return nil, errors.Join(ErrConnectionSetup, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		c.metrics.setupFailed("begin")
		return nil, errors.Join(ErrConnectionSetup, err)
	}

	if id.TenantID != nil {
		if _, err := tx.Exec(ctx, setConfigSQL, c.setting, id.TenantID.String()); err != nil {
			rctx, cancel := c.cleanupContext(ctx)
			rbErr := tx.Rollback(rctx)
			cancel()
			conn.Release()
			c.metrics.setupFailed("set_tenant")
			if errors.Is(rbErr, pgx.ErrTxClosed) {
				rbErr = nil
			}
			return nil, errors.Join(ErrConnectionSetup, err, rbErr)
		}
	}

	c.metrics.opened()
	return &Lease{
		conn:     conn,
		tx:       tx,
		identity: id,
		state:    StatePending,
		openedAt: time.Now(),
		metrics:  c.metrics,
	}, nil
}

// Tx returns the lease transaction. After the lease finishes the
// transaction is closed and every statement fails with pgx.ErrTxClosed.
func (l *Lease) Tx() pgx.Tx {
	return l.tx
}

// Identity returns the identity the lease was opened for.
func (l *Lease) Identity() tenant.Identity {
	return l.identity
}

// State returns the current lifecycle state.
func (l *Lease) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Outcome returns StateCommitted or StateRolledBack once the transaction
// has ended, or StatePending before that.
func (l *Lease) Outcome() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StatePending {
		return StatePending
	}
	return l.outcome
}

// MarkRollback makes the eventual Finish roll back even if the work
// succeeded.
func (l *Lease) MarkRollback() {
	l.mu.Lock()
	l.doomed = true
	l.mu.Unlock()
}

// Commit commits the transaction without releasing the connection. A lease
// marked for rollback is not committed and ErrMarkedRollback is returned.
func (l *Lease) Commit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StatePending {
		return nil
	}
	if l.doomed {
		return ErrMarkedRollback
	}
	return l.commit(ctx)
}

// Rollback rolls the transaction back without releasing the connection.
func (l *Lease) Rollback(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StatePending {
		return nil
	}
	return l.rollback(ctx)
}

// Finish ends the lease: commit when cause is nil and the lease is not
// marked for rollback, rollback otherwise, then release the connection.
// The connection is released even when commit or rollback fails, and only
// the first call has any effect.
func (l *Lease) Finish(ctx context.Context, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateReleased {
		return nil
	}

	var err error
	if l.state == StatePending {
		if cause == nil && !l.doomed {
			err = l.commit(ctx)
		} else {
			err = l.rollback(ctx)
		}
	}
	l.release()
	return err
}

func (l *Lease) commit(ctx context.Context) error {
	err := l.tx.Commit(ctx)
	if err != nil {
		// pgx closes the transaction on a failed commit; nothing was persisted.
		l.state, l.outcome = StateRolledBack, StateRolledBack
		l.metrics.finished("commit_failed")
		return err
	}
	l.state, l.outcome = StateCommitted, StateCommitted
	l.metrics.finished("committed")
	return nil
}

func (l *Lease) rollback(ctx context.Context) error {
	err := l.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		err = nil
	}
	l.state, l.outcome = StateRolledBack, StateRolledBack
	if err != nil {
		l.metrics.finished("rollback_failed")
		return err
	}
	l.metrics.finished("rolled_back")
	return nil
}

func (l *Lease) release() {
	l.conn.Release()
	l.conn = nil
	l.state = StateReleased
	l.metrics.released(time.Since(l.openedAt))
}
