package jwt

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
)

// TokenExtractorFunc pulls the raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	extractor TokenExtractorFunc
	skip      func(r *http.Request) bool
}

// WithExtractor replaces the default bearer extractor.
func WithExtractor(fn TokenExtractorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.extractor = fn
		}
	}
}

// WithSkip bypasses verification for requests matching fn.
func WithSkip(fn func(r *http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) { c.skip = fn }
}

// Middleware verifies the request token and stores its claims in the
// request context. Failures are answered with 401 invalid_token.
func Middleware(s *Service, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{extractor: BearerTokenExtractor}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := cfg.extractor(r)
			if err != nil {
				httperror.Write(w, r, ErrResponseInvalidToken)
				return
			}
			claims, err := s.Parse(token)
			if err != nil {
				httperror.Write(w, r, ErrResponseInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// HeaderTokenExtractor reads the token from a custom header.
func HeaderTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		if token := r.Header.Get(name); token != "" {
			return token, nil
		}
		return "", ErrInvalidToken
	}
}
