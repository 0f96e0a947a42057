package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("auth: identity not found")

	// ErrEmailTaken signals a registration conflict on the email natural key.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrLockedOut = errors.New("auth: account is temporarily locked")

	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")
)

// ValidationError reports structural input failures per field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("auth: validation failed: %s", strings.Join(names, ", "))
}
