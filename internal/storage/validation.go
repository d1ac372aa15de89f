// Package storage persists clients, policies and claims as JSON files and
// keeps login credentials in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/seguros/internal/model"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
	ErrInvalidUser = errors.New("invalid user")
	ErrInvalidKind = errors.New("unknown data file kind")
)

// validateContext ensures the context is usable.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return ctx.Err()
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUser checks a user before it is written.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: nil user", ErrInvalidUser)
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidUser)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, user.Role)
	}
	return nil
}

// validateKind ensures kind names one of the data files.
func validateKind(kind Kind) error {
	switch kind {
	case KindClients, KindPolicies, KindClaims, KindLegacy:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}
