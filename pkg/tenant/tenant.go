package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tenant account.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Tenant is one isolated clinic account.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	Domain    string    `json:"domain,omitempty" db:"domain"`
	AltDomain string    `json:"alt_domain,omitempty" db:"alt_domain"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Identity is the request-scoped tenant identity derived from the host.
// At most one of TenantID and SuperAdmin is set; when neither is set the
// request is anonymous.
//
// SuperAdmin only reflects the hostname. It is not an authorization decision:
// callers must verify super-admin credentials before any cross-tenant access.
type Identity struct {
	TenantID   *uuid.UUID
	TenantSlug string
	SuperAdmin bool
}

// Anonymous reports whether the identity carries neither a tenant nor the
// super-admin flag.
func (i Identity) Anonymous() bool {
	return i.TenantID == nil && !i.SuperAdmin
}

// identityFor builds the identity of a resolved tenant.
func identityFor(t *Tenant) Identity {
	id := t.ID
	return Identity{TenantID: &id, TenantSlug: t.Slug}
}

// Provider loads tenants from a data source.
type Provider interface {
	// GetBySlug returns the tenant owning the given subdomain slug.
	// Returns ErrTenantNotFound if nothing matches.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// GetByDomain returns the tenant whose primary or alternate custom
	// domain equals host exactly. Returns ErrTenantNotFound if nothing matches.
	GetByDomain(ctx context.Context, host string) (*Tenant, error)
}
