package httperror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an HTTP error carrying a machine-readable code and a message
// that is safe to show to the client.
type Error struct {
	Status  int    // HTTP status code
	Code    string // Machine-readable code (e.g. "tenant_not_found")
	Message string // Human-readable message
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Code
}

// New creates an HTTP error.
func New(status int, code, message string) Error {
	return Error{Status: status, Code: code, Message: message}
}

var (
	ErrUnauthorized = Error{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Authentication required"}
	ErrForbidden    = Error{Status: http.StatusForbidden, Code: "forbidden", Message: "Access denied"}
	ErrNotFound     = Error{Status: http.StatusNotFound, Code: "not_found", Message: "Resource not found"}
	ErrInternal     = Error{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
)

// Body is the JSON envelope written for errors.
type Body struct {
	Error Detail `json:"error"`
}

// Detail holds the error payload.
type Detail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Write renders err as a JSON error response. Errors that are not an Error
// are reported as ErrInternal so internal details never reach the client.
func Write(w http.ResponseWriter, _ *http.Request, err error) {
	var he Error
	if !errors.As(err, &he) {
		he = ErrInternal
	}

	body := Body{Error: Detail{
		Code:      he.Code,
		Message:   he.Message,
		RequestID: w.Header().Get("X-Request-ID"),
	}}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(he.Status)
	_ = json.NewEncoder(w).Encode(body)
}
