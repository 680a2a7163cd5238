// Package tenant resolves which clinic an HTTP request belongs to.
//
// Resolution is purely host based. The host header (or X-Forwarded-Host when
// the service runs behind a trusted proxy) is normalized and then:
//
//   - a loopback host maps to a fixed development tenant, if one is configured;
//   - a host whose leftmost label is the reserved super-admin label
//     (admin.example.com) yields the super-admin identity without a tenant;
//   - a host with three or more labels is looked up by its leftmost label as
//     the tenant slug (clinic1.example.com);
//   - any other host is matched exactly against the tenants' custom domains.
//
// Unknown hosts fail with ErrTenantNotFound, suspended and cancelled tenants
// with ErrTenantSuspended and ErrTenantCancelled. The middleware turns these
// into 404 and 403 JSON responses before any downstream handler runs.
//
// # Usage
//
//	provider := tenant.NewCachedProvider(store, tenant.NewMemoryCache(0), time.Minute)
//	resolver := tenant.NewResolver(provider, tenant.WithSuperAdminLabel("admin"))
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(resolver,
//		tenant.WithSkipPaths("/healthz", "/metrics"),
//		tenant.WithLogger(log),
//	))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		id, _ := tenant.IdentityFromContext(r.Context())
//		// ...
//	}
//
// # Security Considerations
//
// Identity.SuperAdmin only states that the request arrived on the admin host.
// It is not an authorization decision; an authentication layer must verify
// super-admin credentials before permitting any cross-tenant operation.
//
// This package never opens database connections or transactions. Binding a
// tenant-scoped transaction to the request is done by package dbctx, which
// runs after this middleware.
package tenant
