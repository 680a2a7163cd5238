package tenant

import "time"

type Config struct {
	SuperAdminLabel    string        `env:"TENANT_SUPERADMIN_LABEL" envDefault:"admin"`                                // SuperAdminLabel is the reserved leftmost host label of the admin host.
	DevTenantSlug      string        `env:"TENANT_DEV_SLUG"`                                                           // DevTenantSlug maps loopback hosts to a tenant. Leave empty in production.
	TrustForwardedHost bool          `env:"TENANT_TRUST_FORWARDED_HOST" envDefault:"false"`                            // TrustForwardedHost enables X-Forwarded-Host.
	CacheTTL           time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`                                          // CacheTTL is how long resolved tenants are cached. Zero disables caching.
	CacheKeyPrefix     string        `env:"TENANT_CACHE_KEY_PREFIX" envDefault:"tenant:"`                              // CacheKeyPrefix prefixes Redis cache keys.
	SkipPaths          []string      `env:"TENANT_SKIP_PATHS" envDefault:"/healthz,/readyz,/metrics" envSeparator:","` // SkipPaths bypass tenant resolution.
}

// ResolverOptions converts the configuration into resolver options.
func (c Config) ResolverOptions() []ResolverOption {
	return []ResolverOption{
		WithSuperAdminLabel(c.SuperAdminLabel),
		WithDevTenant(c.DevTenantSlug),
	}
}
