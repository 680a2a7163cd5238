package jwt

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
)

var (
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token is expired")
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrInvalidSigningKey       = errors.New("jwt: signing key is too short")
	ErrInvalidClaims           = errors.New("jwt: invalid claims")
	ErrMissingClaims           = errors.New("jwt: missing claims")
	ErrInvalidSignature        = errors.New("jwt: invalid signature")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
)

// ErrResponseInvalidToken is written for missing, malformed or expired tokens.
var ErrResponseInvalidToken = httperror.New(http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
