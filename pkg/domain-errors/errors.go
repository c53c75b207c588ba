// Package domainerrors defines the error vocabulary services speak to the
// transport layer. Stores return sentinel errors; services translate them into
// coded errors here; httputil maps codes onto HTTP statuses and JSON envelopes.
package domainerrors

import "net/http"

// Code identifies a class of failure in a transport-agnostic way.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeInvalidName Code = "invalid_name"
	CodeNotFound    Code = "not_found"
	CodeConflict    Code = "conflict"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal_error"
)

// Error carries a code plus a human-readable description. The description is
// safe to return to clients except for internal errors, where httputil omits it.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidName:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
