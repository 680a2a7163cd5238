package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// DefaultSuperAdminLabel is the reserved leftmost host label of the platform
// administration host (admin.example.com).
const DefaultSuperAdminLabel = "admin"

// Resolver derives a tenant identity from a request host.
type Resolver struct {
	provider        Provider
	superAdminLabel string
	devTenantSlug   string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSuperAdminLabel overrides the reserved super-admin host label.
func WithSuperAdminLabel(label string) ResolverOption {
	return func(r *Resolver) {
		if label != "" {
			r.superAdminLabel = strings.ToLower(label)
		}
	}
}

// WithDevTenant maps loopback hosts (localhost, 127.0.0.1, ::1) to the tenant
// with the given slug. Meant for local development only; leave unset in
// production so loopback hosts resolve like any other host.
func WithDevTenant(slug string) ResolverOption {
	return func(r *Resolver) {
		r.devTenantSlug = slug
	}
}

// NewResolver creates a host resolver backed by provider.
func NewResolver(provider Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:        provider,
		superAdminLabel: DefaultSuperAdminLabel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a raw host header value to an identity.
//
// The super-admin identity is returned without a tenant and without touching
// the provider. Tenants with status suspended or cancelled are rejected with
// ErrTenantSuspended or ErrTenantCancelled; provider failures other than
// ErrTenantNotFound are wrapped with ErrLookupFailed. A host that normalizes
// to nothing fails with ErrEmptyHost.
func (r *Resolver) Resolve(ctx context.Context, rawHost string) (Identity, *Tenant, error) {
	host := NormalizeHost(rawHost)
	if host == "" {
		return Identity{}, nil, ErrEmptyHost
	}

	if r.devTenantSlug != "" && isLoopback(host) {
		return r.lookup(ctx, r.provider.GetBySlug, r.devTenantSlug)
	}

	labels := strings.Split(host, ".")
	if labels[0] == r.superAdminLabel {
		return Identity{SuperAdmin: true}, nil, nil
	}

	if len(labels) >= 3 && net.ParseIP(host) == nil {
		return r.lookup(ctx, r.provider.GetBySlug, labels[0])
	}
	return r.lookup(ctx, r.provider.GetByDomain, host)
}

func (r *Resolver) lookup(
	ctx context.Context,
	get func(context.Context, string) (*Tenant, error),
	key string,
) (Identity, *Tenant, error) {
	t, err := get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return Identity{}, nil, ErrTenantNotFound
		}
		return Identity{}, nil, errors.Join(ErrLookupFailed, err)
	}
	if t == nil {
		return Identity{}, nil, ErrTenantNotFound
	}

	if err := CheckStatus(t); err != nil {
		return Identity{}, nil, err
	}
	return identityFor(t), t, nil
}

// CheckStatus rejects tenants that must not be served.
func CheckStatus(t *Tenant) error {
	switch t.Status {
	case StatusSuspended:
		return fmt.Errorf("%w: %s", ErrTenantSuspended, t.Slug)
	case StatusCancelled:
		return fmt.Errorf("%w: %s", ErrTenantCancelled, t.Slug)
	default:
		return nil
	}
}
