package tenant_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// mockProvider is an in-memory Provider that counts lookups.
type mockProvider struct {
	mu     sync.RWMutex
	bySlug map[string]*tenant.Tenant
	calls  int
	err    error
}

func newMockProvider(tenants ...*tenant.Tenant) *mockProvider {
	p := &mockProvider{bySlug: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		p.bySlug[t.Slug] = t
	}
	return p
}

func (m *mockProvider) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.bySlug[slug]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (m *mockProvider) GetByDomain(_ context.Context, host string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.bySlug {
		if t.Domain == host || t.AltDomain == host {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockProvider) callCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *mockProvider) setError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func createTestTenant(slug string, status tenant.Status) *tenant.Tenant {
	return &tenant.Tenant{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      slug + " Veterinary Clinic",
		Status:    status,
		CreatedAt: time.Now(),
	}
}
