package model

import (
	"strings"
	"time"
)

// Role grants access to operations.
type Role string

// Roles. Administrators may change data, the rest may only look at it.
const (
	RoleAdmin Role = "administrador"
	RoleUser  Role = "usuario"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole accepts the persisted value or an english alias.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrador", "admin":
		return RoleAdmin, nil
	case "usuario", "usuário", "user":
		return RoleUser, nil
	}
	return "", invalid("role", "unknown role %q", s)
}

// User is a credential entry. PasswordHash is a bcrypt hash.
type User struct {
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	Username     string
	PasswordHash string
	Role         Role
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
