package dbctx

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// Middleware binds one connection and transaction to every request that
// carries a tenant or super-admin identity. It must run after
// tenant.Middleware. Anonymous requests pass through untouched.
//
// The transaction commits after the handler returns, unless the handler
// committed earlier with Commit. It rolls back when the handler panics,
// responds with a 5xx status, calls MarkRollback, when writing the response
// fails, or when the client goes away first. Setup failures are answered
// with 500 db_connection_failed and the handler is not called.
func Middleware(pool Pool, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := tenant.IdentityFromContext(r.Context())
			if id.Anonymous() {
				next.ServeHTTP(w, r)
				return
			}
			cfg.serve(w, r, pool, id, next)
		})
	}
}

// ClaimFunc extracts the tenant id from an already verified token.
type ClaimFunc func(ctx context.Context) (uuid.UUID, bool)

// TokenMiddleware is Middleware for token-authenticated clients: the tenant
// comes from claim instead of the host. It must run after the token
// verification middleware. Requests without the claim are rejected with
// 401 tenant_claim_missing before any connection is acquired.
func TokenMiddleware(pool Pool, claim ClaimFunc, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := claim(r.Context())
			if !ok || tenantID == uuid.Nil {
				cfg.errorHandler(w, r, ErrResponseClaimMissing)
				return
			}
			id := tenant.Identity{TenantID: &tenantID}
			r = r.WithContext(tenant.WithIdentity(r.Context(), id))
			cfg.serve(w, r, pool, id, next)
		})
	}
}

func (c *config) serve(w http.ResponseWriter, r *http.Request, pool Pool, id tenant.Identity, next http.Handler) {
	rec := &statusRecorder{ResponseWriter: w}
	err := c.within(r.Context(), pool, id, func(ctx context.Context) error {
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.writeErr != nil {
			return errors.Join(ErrStreamFailed, rec.writeErr)
		}
		if rec.status >= http.StatusInternalServerError {
			return ErrServerFailure
		}
		return nil
	})
	if errors.Is(err, ErrConnectionSetup) {
		c.log.ErrorContext(r.Context(), "failed to open request transaction", logger.Error(err))
		c.errorHandler(w, r, ErrResponseConnectionFailed)
	}
}

// statusRecorder remembers the status written by the handler and the first
// error returned by the response stream.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	writeErr error
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	if err != nil && s.writeErr == nil {
		s.writeErr = err
	}
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
