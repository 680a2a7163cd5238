package dbctx

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
)

var (
	// ErrConnectionSetup wraps every failure to acquire a connection, begin
	// the transaction or apply the tenant setting.
	ErrConnectionSetup = errors.New("dbctx: failed to set up request transaction")
	// ErrNoTenant is returned by WithTenantTx for a zero tenant id.
	ErrNoTenant = errors.New("dbctx: tenant id is required")
	// ErrNoLease is returned by Commit when ctx carries no lease.
	ErrNoLease = errors.New("dbctx: no lease in context")
	// ErrNoFallback is returned by DB.InTx when there is neither an ambient
	// transaction nor a shared pool.
	ErrNoFallback = errors.New("dbctx: no transaction in context and no fallback pool")

	// Completion causes that force a rollback.
	ErrPanicked       = errors.New("dbctx: handler panicked")
	ErrAborted        = errors.New("dbctx: request aborted before completion")
	ErrServerFailure  = errors.New("dbctx: handler responded with a server error")
	ErrMarkedRollback = errors.New("dbctx: transaction marked for rollback")
	ErrStreamFailed   = errors.New("dbctx: writing the response failed")
)

// Predefined HTTP errors written by the middlewares.
var (
	ErrResponseConnectionFailed = httperror.New(http.StatusInternalServerError, "db_connection_failed", "Database connection could not be established")
	ErrResponseClaimMissing     = httperror.New(http.StatusUnauthorized, "tenant_claim_missing", "Token does not carry a tenant")
)
