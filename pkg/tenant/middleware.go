package tenant

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the tenant identity of every request from its host and
// attaches it to the request context before any other processing.
//
// Unknown hosts are answered with 404, suspended or cancelled tenants with
// 403 and lookup failures with 500; in each case the next handler is not
// called, so no database connection is ever opened for rejected requests.
func Middleware(resolver *Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = defaultErrorHandler(cfg.logger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			host := HostFromRequest(r, cfg.trustForwarded)
			id, t, err := resolver.Resolve(r.Context(), host)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			if t != nil {
				ctx = WithTenant(ctx, t)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
