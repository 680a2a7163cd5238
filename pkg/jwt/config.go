package jwt

import "time"

// Config holds the token service settings for the mobile API.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY"`                       // SigningKey is the HMAC key, at least MinKeyLength bytes. Empty disables token auth.
	Issuer     string        `env:"JWT_ISSUER" envDefault:"clinickit"`     // Issuer is written to and required in the iss claim.
	TTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`              // TTL is the lifetime of issued tokens.
	Header     string        `env:"JWT_HEADER" envDefault:"Authorization"` // Header carries the token; Authorization expects a Bearer value.
}

// Enabled reports whether a signing key is configured.
func (c Config) Enabled() bool {
	return c.SigningKey != ""
}

// NewFromConfig builds a Service from cfg.
func NewFromConfig(cfg Config) (*Service, error) {
	return New([]byte(cfg.SigningKey), WithIssuer(cfg.Issuer), WithTTL(cfg.TTL))
}

// Extractor returns the token extractor matching cfg.Header.
func (c Config) Extractor() TokenExtractorFunc {
	if c.Header == "" || c.Header == "Authorization" {
		return BearerTokenExtractor
	}
	return HeaderTokenExtractor(c.Header)
}
