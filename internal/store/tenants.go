// Package store holds the pgx-backed repositories.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/clinickit/pkg/dbctx"
	"github.com/dmitrymomot/clinickit/pkg/pg"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

const tenantColumns = `id, slug, name, COALESCE(domain, '') AS domain, COALESCE(alt_domain, '') AS alt_domain, status, created_at`

// Tenants reads the tenants table. The table has no row-level security and
// is read through the shared pool, since tenant resolution runs before any
// request transaction exists.
type Tenants struct {
	db *dbctx.DB
}

// NewTenants creates the repository. It satisfies tenant.Provider.
func NewTenants(db *dbctx.DB) *Tenants {
	return &Tenants{db: db}
}

// GetBySlug implements tenant.Provider.
func (s *Tenants) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.one(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

// GetByDomain implements tenant.Provider. host matches either custom domain.
func (s *Tenants) GetByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	return s.one(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE domain = $1 OR alt_domain = $1 LIMIT 1`, host)
}

// ListActive returns every active tenant ordered by slug.
func (s *Tenants) ListActive(ctx context.Context) ([]tenant.Tenant, error) {
	return dbctx.Query(ctx, s.db,
		`SELECT `+tenantColumns+` FROM tenants WHERE status = $1 ORDER BY slug`,
		pgx.RowToStructByName[tenant.Tenant],
		tenant.StatusActive,
	)
}

func (s *Tenants) one(ctx context.Context, sql string, arg string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.db.Querier(ctx).QueryRow(ctx, sql, arg).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Domain, &t.AltDomain, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return &t, nil
}
