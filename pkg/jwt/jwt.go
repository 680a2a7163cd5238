package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"

	// MinKeyLength is the shortest accepted HMAC-SHA256 signing key.
	MinKeyLength = 32
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims are the registered claims of RFC 7519 used by this service.
// Zero timestamps are treated as unset.
type StandardClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

func (c StandardClaims) validAt(now time.Time) error {
	if c.ExpiresAt > 0 && now.Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now.Unix() < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Claims are carried by tokens issued to mobile and API clients.
// TenantID binds the token to a single clinic.
type Claims struct {
	StandardClaims
	TenantID uuid.UUID `json:"tid"`
}

// Service signs and verifies HS256 tokens.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the iss claim on issued tokens and requires it on parse.
func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithTTL sets the lifetime of issued tokens.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. The key must be at least MinKeyLength bytes.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if len(key) < MinKeyLength {
		return nil, ErrInvalidSigningKey
	}
	s := &Service{key: key, ttl: time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject scoped to tenantID.
func (s *Service) Issue(subject string, tenantID uuid.UUID) (string, error) {
	if tenantID == uuid.Nil {
		return "", ErrMissingClaims
	}
	now := s.now()
	return s.sign(Claims{
		StandardClaims: StandardClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
		TenantID: tenantID,
	})
}

// Parse verifies the signature, algorithm, issuer and time window of token.
func (s *Service) Parse(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	expected := s.signature(parts[0] + "." + parts[1])
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}

	var h header
	if err := decodeSegment(parts[0], &h); err != nil {
		return nil, err
	}
	if h.Algorithm != headerAlgorithm {
		return nil, ErrUnexpectedSigningMethod
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, err
	}
	if err := claims.validAt(s.now()); err != nil {
		return nil, err
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidClaims
	}
	return &claims, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	h, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("jwt: marshal header: %w", err)
	}
	c, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("jwt: marshal claims: %w", err)
	}
	payload := encodeSegment(h) + "." + encodeSegment(c)
	return payload + "." + s.signature(payload), nil
}

func (s *Service) signature(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return encodeSegment(mac.Sum(nil))
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(seg string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}
