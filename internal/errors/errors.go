package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrNetwork    = stderrors.New("network error")
	ErrValidation = stderrors.New("validation error")
	ErrAuth       = stderrors.New("authentication error")
	ErrConflict   = stderrors.New("conflict")
)

// NetworkError means no response reached the client.
// Reads retry it; mutations never do.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error        { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ValidationError is a rejected payload. The message is shown to the user verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError is an expired or invalid session; the caller owns session teardown.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return ErrAuth.Error()
	}
	return fmt.Sprintf("%v: %s", ErrAuth, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// ConflictError is a write that raced a concurrent external change.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%v: %s", ErrConflict, e.Message)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// APIError is any other non-success response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Network wraps a transport failure.
func Network(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsRetryable reports whether a read may be retried automatically.
func IsRetryable(err error) bool {
	return stderrors.Is(err, ErrNetwork)
}

// StatusCode maps an error to the HTTP status the server responds with.
func StatusCode(err error) int {
	var apiErr *APIError
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	case stderrors.As(err, &apiErr):
		return apiErr.Status
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus normalizes an HTTP error response into the taxonomy.
func FromStatus(status int, message string) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Message: message}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Message: message}
	case http.StatusConflict:
		return &ConflictError{Message: message}
	default:
		return &APIError{Status: status, Message: message}
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
