package tenant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	errorHandler   ErrorHandler
	skipPaths      []string
	trustForwarded bool
	logger         *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass resolution (health checks,
// metrics, static assets). Such requests stay anonymous.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithTrustForwardedHost makes the middleware read X-Forwarded-Host.
// Enable only behind a proxy that sets the header itself.
func WithTrustForwardedHost(trust bool) Option {
	return func(c *config) {
		c.trustForwarded = trust
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client-facing errors produced by the default error handler.
var (
	ErrResponseNotFound     = httperror.New(http.StatusNotFound, "tenant_not_found", "No clinic is registered for this address")
	ErrResponseSuspended    = httperror.New(http.StatusForbidden, "tenant_suspended", "This clinic account is suspended")
	ErrResponseCancelled    = httperror.New(http.StatusForbidden, "tenant_cancelled", "This clinic account has been cancelled")
	ErrResponseLookupFailed = httperror.New(http.StatusInternalServerError, "tenant_lookup_failed", "Unable to resolve clinic")
)

// HTTPError maps a resolution error to its client-facing representation.
func HTTPError(err error) httperror.Error {
	switch {
	case errors.Is(err, ErrTenantNotFound), errors.Is(err, ErrEmptyHost):
		return ErrResponseNotFound
	case errors.Is(err, ErrTenantSuspended):
		return ErrResponseSuspended
	case errors.Is(err, ErrTenantCancelled):
		return ErrResponseCancelled
	default:
		return ErrResponseLookupFailed
	}
}

func defaultErrorHandler(log *slog.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		he := HTTPError(err)
		if he.Status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "tenant resolution failed",
				logger.Error(err),
				slog.String("host", r.Host),
			)
		} else {
			log.DebugContext(r.Context(), "tenant rejected",
				logger.Error(err),
				slog.String("host", r.Host),
			)
		}
		httperror.Write(w, r, he)
	}
}
