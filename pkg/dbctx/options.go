package dbctx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// DefaultCleanupTimeout bounds commit, rollback and release after the
// request context is gone.
const DefaultCleanupTimeout = 5 * time.Second

// ErrorHandler renders setup failures and rejected tokens.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures Open, WithTenantTx and the middlewares.
type Option func(*config)

type config struct {
	setting        string
	cleanupTimeout time.Duration
	log            *slog.Logger
	metrics        *Metrics
	errorHandler   ErrorHandler
}

func newConfig(opts ...Option) *config {
	c := &config{
		setting:        DefaultTenantSetting,
		cleanupTimeout: DefaultCleanupTimeout,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.errorHandler == nil {
		c.errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			httperror.Write(w, r, err)
		}
	}
	return c
}

// WithTenantSetting overrides the name of the transaction-local setting
// that carries the tenant id. The name is sent as a query parameter.
func WithTenantSetting(name string) Option {
	return func(c *config) {
		if name != "" {
			c.setting = name
		}
	}
}

// WithCleanupTimeout bounds how long commit or rollback may take once the
// request has finished.
func WithCleanupTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.cleanupTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log.With(logger.Component("dbctx"))
		}
	}
}

// WithMetrics records lease lifecycles into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithErrorHandler replaces the default JSON error rendering.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// cleanupContext detaches from ctx so cleanup still runs after the client
// has gone away, but keeps its values for logging.
func (c *config) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.cleanupTimeout)
}
