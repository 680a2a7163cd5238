package tenant

import (
	"context"
	"time"

	"github.com/dmitrymomot/clinickit/pkg/cache"
)

// Cache stores resolved tenants by lookup key.
type Cache interface {
	// Get retrieves a tenant from cache by key.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, key string)
}

// DefaultCacheSize is the default maximum number of tenants kept in memory.
const DefaultCacheSize = 1000

// MemoryCache is a process-local tenant cache.
type MemoryCache struct {
	lru *cache.LRUCache[string, *Tenant]
}

// NewMemoryCache creates an in-memory cache holding at most size tenants.
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &MemoryCache{lru: cache.NewLRUCache[string, *Tenant](size)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Tenant, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, t *Tenant, ttl time.Duration) {
	c.lru.PutWithTTL(key, t, ttl)
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.lru.Remove(key)
}

// CachedProvider decorates a Provider with a cache. Only found tenants are
// cached; misses and errors always reach the underlying provider so that a
// freshly registered clinic is reachable immediately.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with cache. A non-positive ttl disables caching.
func NewCachedProvider(next Provider, c Cache, ttl time.Duration) Provider {
	if c == nil || ttl <= 0 {
		return next
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl}
}

func (p *CachedProvider) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return p.get(ctx, "slug:"+slug, slug, p.next.GetBySlug)
}

func (p *CachedProvider) GetByDomain(ctx context.Context, host string) (*Tenant, error) {
	return p.get(ctx, "domain:"+host, host, p.next.GetByDomain)
}

// Invalidate drops cached entries of t, e.g. after a status change.
func (p *CachedProvider) Invalidate(ctx context.Context, t *Tenant) {
	p.cache.Delete(ctx, "slug:"+t.Slug)
	if t.Domain != "" {
		p.cache.Delete(ctx, "domain:"+t.Domain)
	}
	if t.AltDomain != "" {
		p.cache.Delete(ctx, "domain:"+t.AltDomain)
	}
}

func (p *CachedProvider) get(
	ctx context.Context,
	key, lookup string,
	load func(context.Context, string) (*Tenant, error),
) (*Tenant, error) {
	if t, ok := p.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := load(ctx, lookup)
	if err != nil {
		return nil, err
	}

	p.cache.Set(ctx, key, t, p.ttl)
	return t, nil
}
