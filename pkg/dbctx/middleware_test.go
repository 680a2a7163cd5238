package dbctx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/dbctx"
	"github.com/dmitrymomot/clinickit/pkg/httperror"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

func requestFor(id tenant.Identity) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	return r.WithContext(tenant.WithIdentity(r.Context(), id))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httperror.Detail {
	t.Helper()
	var body httperror.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("anonymous requests pass through", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		called := false
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, ok := dbctx.LeaseFromContext(r.Context())
			assert.False(t, ok)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.True(t, called)
		assert.Zero(t, pool.acquisitions())
	})

	t.Run("commits after a successful handler", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tx, ok := dbctx.TxFromContext(r.Context())
			require.True(t, ok)
			assert.Same(t, pool.conn.tx, tx)

			commits, _ := pool.conn.tx.counts()
			assert.Zero(t, commits)
			w.WriteHeader(http.StatusCreated)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFor(tenantIdentity()))

		assert.Equal(t, http.StatusCreated, rec.Code)
		commits, rollbacks := pool.conn.tx.counts()
		assert.Equal(t, 1, commits)
		assert.Zero(t, rollbacks)
		assert.Equal(t, 1, pool.acquisitions())
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("super admin gets a transaction without tenant setting", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenant.Identity{SuperAdmin: true}))

		assert.Empty(t, pool.conn.tx.execs)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("server error rolls back", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))

		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("client errors still commit", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))

		commits, _ := pool.conn.tx.counts()
		assert.Equal(t, 1, commits)
	})

	t.Run("mark rollback", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, dbctx.MarkRollback(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))
		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))

		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
	})

	t.Run("panic rolls back, releases and re-panics", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("handler bug")
		}))

		assert.PanicsWithValue(t, "handler bug", func() {
			h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))
		})

		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("client disconnect rolls back on a live context", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		ctx, cancel := context.WithCancel(context.Background())
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cancel()
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
		h.ServeHTTP(httptest.NewRecorder(), r.WithContext(tenant.WithIdentity(ctx, tenantIdentity())))

		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
		assert.NoError(t, pool.conn.tx.cleanupErr)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("setup failure answers 500 without calling the handler", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		pool.acquireErr = errors.New("too many clients")
		called := false
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFor(tenantIdentity()))

		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "db_connection_failed", decodeError(t, rec).Code)
		assert.NotContains(t, rec.Body.String(), "too many clients")
	})

	t.Run("commit failure is not rendered twice", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		pool.conn.tx.commitErr = errors.New("could not serialize access")
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFor(tenantIdentity()))

		assert.Equal(t, "ok", rec.Body.String())
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("failed response write rolls back", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		w := &brokenWriter{ResponseRecorder: httptest.NewRecorder(), err: errors.New("broken pipe")}
		var writeErr error
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, writeErr = w.Write([]byte(`{"tickets":[`))
		}))

		h.ServeHTTP(w, requestFor(tenantIdentity()))

		require.Error(t, writeErr)
		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("explicit commit before responding", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, dbctx.Commit(r.Context()))
			w.WriteHeader(http.StatusInternalServerError)
		}))

		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))

		commits, rollbacks := pool.conn.tx.counts()
		assert.Equal(t, 1, commits)
		assert.Zero(t, rollbacks)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("explicit commit reports the failure to the handler", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		pool.conn.tx.commitErr = errors.New("could not serialize access")
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := dbctx.Commit(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFor(tenantIdentity()))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		commits, _ := pool.conn.tx.counts()
		assert.Equal(t, 1, commits)
		assert.Equal(t, 1, pool.conn.released())
	})

	t.Run("explicit commit refuses a marked transaction", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.Middleware(pool)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.True(t, dbctx.MarkRollback(r.Context()))
			assert.ErrorIs(t, dbctx.Commit(r.Context()), dbctx.ErrMarkedRollback)
			w.WriteHeader(http.StatusOK)
		}))

		h.ServeHTTP(httptest.NewRecorder(), requestFor(tenantIdentity()))

		commits, rollbacks := pool.conn.tx.counts()
		assert.Zero(t, commits)
		assert.Equal(t, 1, rollbacks)
	})
}

func TestCommit_WithoutLease(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, dbctx.Commit(context.Background()), dbctx.ErrNoLease)
}

// brokenWriter fails every body write, like a connection reset mid-stream.
type brokenWriter struct {
	*httptest.ResponseRecorder
	err error
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestTokenMiddleware(t *testing.T) {
	t.Parallel()

	type claimKey struct{}
	claim := func(ctx context.Context) (uuid.UUID, bool) {
		id, ok := ctx.Value(claimKey{}).(uuid.UUID)
		return id, ok
	}

	t.Run("missing claim is rejected before acquiring", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		called := false
		h := dbctx.TokenMiddleware(pool, claim)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mobile/tickets", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "tenant_claim_missing", decodeError(t, rec).Code)
		assert.Zero(t, pool.acquisitions())
	})

	t.Run("nil tenant id is rejected", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		h := dbctx.TokenMiddleware(pool, claim)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		r := httptest.NewRequest(http.MethodGet, "/mobile/tickets", nil)
		r = r.WithContext(context.WithValue(r.Context(), claimKey{}, uuid.Nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, pool.acquisitions())
	})

	t.Run("claim scopes the transaction", func(t *testing.T) {
		t.Parallel()

		pool := newFakePool()
		tenantID := uuid.New()
		h := dbctx.TokenMiddleware(pool, claim)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := tenant.IdentityFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, tenantID, *id.TenantID)
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/mobile/tickets", nil)
		r = r.WithContext(context.WithValue(r.Context(), claimKey{}, tenantID))
		h.ServeHTTP(httptest.NewRecorder(), r)

		require.Len(t, pool.conn.tx.execs, 1)
		assert.Equal(t, tenantID.String(), pool.conn.tx.execs[0].args[1])
		commits, _ := pool.conn.tx.counts()
		assert.Equal(t, 1, commits)
		assert.Equal(t, 1, pool.conn.released())
	})
}
