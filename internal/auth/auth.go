// Package auth authenticates operators against the credential store and
// tracks who is logged in for the current process.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// AdminUsername is the account that can never be removed.
const AdminUsername = "admin"

// Errors returned by Manager.
var (
	ErrProtectedUser    = errors.New("user cannot be removed")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrForbidden        = errors.New("operation requires an administrator")
	ErrInvalidInput     = errors.New("username and password are required")
)

// CredentialStore persists users. *storage.SQLiteStorage implements it.
type CredentialStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	DeleteUser(ctx context.Context, username string) error
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
}

// Manager checks credentials and remembers the authenticated user.
type Manager struct {
	store   CredentialStore
	logger  *slog.Logger
	now     func() time.Time
	current *model.User
	cost    int
	mu      sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) {
		m.cost = cost
	}
}

// WithClock overrides the time source used for login stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager on top of store.
func NewManager(store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate checks the secret and, on success, makes username the
// current user. Unknown users and wrong secrets return false with no error.
func (m *Manager) Authenticate(ctx context.Context, username, secret string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return false, nil
	}

	user, err := m.store.GetUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		m.logger.Debug("login for unknown user", "user", username)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		m.logger.Debug("login with wrong password", "user", username)
		return false, nil
	}

	if err := m.store.UpdateLastLogin(ctx, username, m.now()); err != nil {
		m.logger.Warn("failed to record login", "user", username, "error", err)
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()
	m.logger.Debug("user logged in", "user", username, "role", user.Role)
	return true, nil
}

// Register creates a user. A taken username returns storage.ErrUserExists.
func (m *Manager) Register(ctx context.Context, username, secret string, role model.Role) error {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return ErrInvalidInput
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), m.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    m.now(),
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return err
	}
	m.logger.Info("user registered", "user", username, "role", role)
	return nil
}

// Remove deletes a user. The admin account is protected.
func (m *Manager) Remove(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == AdminUsername {
		return fmt.Errorf("%w: %s", ErrProtectedUser, username)
	}
	if err := m.store.DeleteUser(ctx, username); err != nil {
		return err
	}

	m.mu.Lock()
	if m.current != nil && m.current.Username == username {
		m.current = nil
	}
	m.mu.Unlock()
	m.logger.Info("user removed", "user", username)
	return nil
}

// List returns every user ordered by name.
func (m *Manager) List(ctx context.Context) ([]model.User, error) {
	return m.store.ListUsers(ctx)
}

// Logout forgets the current user.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// IsAuthenticated reports whether someone is logged in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// IsAdmin reports whether the current user is an administrator.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.IsAdmin()
}

// CurrentUser returns the logged in user.
func (m *Manager) CurrentUser() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return model.User{}, false
	}
	return *m.current, true
}

// Require fails unless the current user may perform an operation that
// needs role.
func (m *Manager) Require(role model.Role) error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if role == model.RoleAdmin && !m.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
