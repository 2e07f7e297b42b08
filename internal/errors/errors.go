package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds shared by the server and the session client. Callers classify
// with errors.Is; the session client maps HTTP responses onto these.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Resource errors
	ErrNotFound = errors.New("not found")

	// Transport errors (network failure, timeout, unreadable response)
	ErrTransport = errors.New("transport failure")

	// General errors
	ErrInternal = errors.New("internal error")
)

// ValidationError carries field-scoped messages, mirroring the API's
// 400 response shape: {"username": ["..."], "email": ["..."]}.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// FirstMessage returns the first message for the given fields, checked in
// order. Used to surface one error at a time in the UI.
func (e *ValidationError) FirstMessage(fields ...string) string {
	for _, field := range fields {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	for _, msgs := range e.Fields {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
