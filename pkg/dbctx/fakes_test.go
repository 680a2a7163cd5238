package dbctx_test

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/clinickit/pkg/dbctx"
)

type execCall struct {
	sql  string
	args []any
}

// fakeTx records what the code under test does with a transaction.
// Commit and Rollback count only calls that actually end the transaction.
type fakeTx struct {
	pgx.Tx

	mu          sync.Mutex
	execs       []execCall
	commits     int
	rollbacks   int
	savepoints  []*fakeTx
	closed      bool
	execErr     error
	commitErr   error
	rollbackErr error
	cleanupErr  error // ctx.Err() seen by Commit or Rollback
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	t.execs = append(t.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("SELECT 1"), t.execErr
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sp := &fakeTx{}
	t.savepoints = append(t.savepoints, sp)
	return sp, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.commits++
	t.cleanupErr = ctx.Err()
	t.closed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.rollbacks++
	t.cleanupErr = ctx.Err()
	t.closed = true
	return t.rollbackErr
}

func (t *fakeTx) counts() (commits, rollbacks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commits, t.rollbacks
}

type fakeConn struct {
	tx       *fakeTx
	beginErr error

	mu       sync.Mutex
	releases int
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return c.tx, nil
}

func (c *fakeConn) Release() {
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
}

func (c *fakeConn) released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases
}

// fakePool hands out a single connection and counts acquisitions.
type fakePool struct {
	conn       *fakeConn
	acquireErr error

	mu       sync.Mutex
	acquired int
}

func newFakePool() *fakePool {
	return &fakePool{conn: &fakeConn{tx: &fakeTx{}}}
}

func (p *fakePool) Acquire(context.Context) (dbctx.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conn, nil
}

func (p *fakePool) acquisitions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// fakeFallback stands in for *pgxpool.Pool.
type fakeFallback struct {
	fakeTx
	begun []*fakeTx
}

func (f *fakeFallback) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	f.begun = append(f.begun, tx)
	return tx, nil
}

func metricValue(reg *prometheus.Registry, name string, labels map[string]string) float64 {
	mfs, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}
