// Package jwt issues and verifies the HS256 access tokens used by mobile
// clients. Each token carries the tenant it was issued for in the tid
// claim; Middleware verifies the token and TenantID exposes the claim to
// dbctx.TokenMiddleware.
//
//	svc, err := jwt.New([]byte(cfg.SigningKey), jwt.WithIssuer("clinickit"), jwt.WithTTL(12*time.Hour))
//	r.With(jwt.Middleware(svc), dbctx.TokenMiddleware(pool, jwt.TenantID)).Get("/mobile/...", h)
package jwt
