package core

import "errors"

// Error codes for domain errors surfaced to clients.
const (
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeValidation         = "validation_error"
	ErrCodePersistenceFailure = "persistence_failure"
	ErrCodeBadRequest         = "bad_request"
)

// ErrNotFound is returned when a connection id is not registered.
var ErrNotFound = errors.New("connection not found")

// CoreError wraps a code and human-readable message. It is delivered
// to the originating connection only; no error here is fatal.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
