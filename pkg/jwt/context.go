package jwt

import (
	"context"

	"github.com/google/uuid"
)

type claimsKey struct{}

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims verified by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// TenantID returns the tenant claim of the verified token in ctx.
// It matches dbctx.ClaimFunc.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return c.TenantID, true
}
