// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// It backs the in-process tenant cache: resolved tenants are kept for a short
// TTL so that host resolution does not hit the database on every request,
// while the capacity bound keeps memory flat under many custom domains.
//
// # Usage
//
//	c := cache.NewLRUCache[string, *tenant.Tenant](1000)
//	c.PutWithTTL("slug:clinic1", t, time.Minute)
//	if t, ok := c.Get("slug:clinic1"); ok {
//		// ...
//	}
//
// Get, Put, PutWithTTL and Remove are O(1). Expired entries are dropped lazily
// on access; PurgeExpired sweeps them eagerly.
package cache
