package tenant

import (
	"context"
	"log/slog"
)

type (
	identityKey struct{}
	tenantKey   struct{}
)

// WithIdentity attaches the resolved identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the middleware.
// A missing identity is reported as anonymous with ok == false.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithTenant attaches the full tenant record to the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext retrieves the tenant record from the context.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	return t, ok && t != nil
}

// LoggerExtractor returns a logger context extractor that adds tenant
// attributes to every log record.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := IdentityFromContext(ctx)
		if !ok || id.Anonymous() {
			return slog.Attr{}, false
		}
		if id.SuperAdmin {
			return slog.Bool("super_admin", true), true
		}
		return slog.Group("tenant",
			slog.String("id", id.TenantID.String()),
			slog.String("slug", id.TenantSlug),
		), true
	}
}
