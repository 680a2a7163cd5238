package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches the host.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantSuspended is returned when the tenant account is suspended.
	ErrTenantSuspended = errors.New("tenant is suspended")

	// ErrTenantCancelled is returned when the tenant account is cancelled.
	ErrTenantCancelled = errors.New("tenant is cancelled")

	// ErrLookupFailed wraps storage errors raised while loading a tenant.
	ErrLookupFailed = errors.New("tenant lookup failed")

	// ErrEmptyHost is returned when the request carries no usable host. It
	// is answered like an unknown host.
	ErrEmptyHost = errors.New("empty host")
)
