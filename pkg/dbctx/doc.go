// Package dbctx binds one pooled PostgreSQL connection and one transaction
// to each tenant-scoped unit of work and exposes it through context.Context.
//
// A Lease is opened with the caller's tenant.Identity. For a tenant identity
// the transaction starts with
//
//	SELECT set_config('app.current_tenant_id', $tenant, true)
//
// so row-level security policies filter every later statement to that
// tenant. The setting is transaction-local and vanishes on commit or
// rollback, before the connection goes back to the pool.
//
// Middleware (host-resolved tenants) and TokenMiddleware (tenant taken from
// a verified token claim) open the lease, bind it to the request context
// and finish it exactly once when the handler returns, panics or the
// client disconnects. WithTenantTx runs the same lifecycle for background
// jobs.
//
// Data access goes through DB, which uses the ambient transaction when the
// context has one and falls back to the shared pool otherwise:
//
//	func (r *Repo) Count(ctx context.Context) (n int64, err error) {
//		err = r.db.Querier(ctx).QueryRow(ctx, "SELECT count(*) FROM patients").Scan(&n)
//		return n, err
//	}
//
// By default the transaction is committed after the handler has written its
// response, so a commit failure at that point is only logged. DB.InTx does
// not help there: inside a request it opens a savepoint and its commit is
// not durable. Handlers that must not acknowledge an uncommitted write call
// Commit before writing the response:
//
//	if err := dbctx.Commit(r.Context()); err != nil {
//		w.WriteHeader(http.StatusServiceUnavailable)
//		return
//	}
package dbctx
