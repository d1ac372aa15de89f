package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return NewManager(store, WithBcryptCost(bcrypt.MinCost))
}

func TestManager_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.Register(ctx, "ana", "segredo", model.RoleUser))
	assert.False(t, m.IsAuthenticated())

	tests := []struct {
		name   string
		user   string
		secret string
		want   bool
	}{
		{name: "wrong secret", user: "ana", secret: "errado", want: false},
		{name: "unknown user", user: "bia", secret: "segredo", want: false},
		{name: "empty secret", user: "ana", secret: "", want: false},
		{name: "correct", user: "ana", secret: "segredo", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := m.Authenticate(ctx, tt.user, tt.secret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	user, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsAdmin())
}

func TestManager_RegisterRejectsDuplicateAndBadInput(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.Register(ctx, "ana", "x", model.RoleUser))
	assert.ErrorIs(t, m.Register(ctx, "ana", "y", model.RoleAdmin), storage.ErrUserExists)
	assert.ErrorIs(t, m.Register(ctx, "", "y", model.RoleUser), ErrInvalidInput)
	assert.ErrorIs(t, m.Register(ctx, "bia", "", model.RoleUser), ErrInvalidInput)
	assert.Error(t, m.Register(ctx, "bia", "y", model.Role("Cliente")))
}

func TestManager_AdminCannotBeRemoved(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.Register(ctx, AdminUsername, "admin123", model.RoleAdmin))
	assert.ErrorIs(t, m.Remove(ctx, AdminUsername), ErrProtectedUser)

	users, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestManager_RemoveLogsOutRemovedUser(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.Register(ctx, "ana", "x", model.RoleUser))
	ok, err := m.Authenticate(ctx, "ana", "x")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Remove(ctx, "ana"))
	assert.False(t, m.IsAuthenticated())
	assert.ErrorIs(t, m.Remove(ctx, "ana"), storage.ErrNotFound)
}

func TestManager_Require(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	require.NoError(t, m.Register(ctx, "admin", "a", model.RoleAdmin))
	require.NoError(t, m.Register(ctx, "ana", "b", model.RoleUser))

	assert.ErrorIs(t, m.Require(model.RoleUser), ErrNotAuthenticated)

	_, err := m.Authenticate(ctx, "ana", "b")
	require.NoError(t, err)
	assert.NoError(t, m.Require(model.RoleUser))
	assert.ErrorIs(t, m.Require(model.RoleAdmin), ErrForbidden)

	m.Logout()
	_, err = m.Authenticate(ctx, "admin", "a")
	require.NoError(t, err)
	assert.NoError(t, m.Require(model.RoleAdmin))
	assert.True(t, m.IsAdmin())

	m.Logout()
	assert.False(t, m.IsAuthenticated())
}

func TestManager_EnsureUsersSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.EnsureUsers(ctx, filepath.Join(t.TempDir(), LegacyUsersFile))
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	for _, u := range DefaultUsers() {
		ok, err := m.Authenticate(ctx, u.Username, u.Secret)
		require.NoError(t, err)
		assert.True(t, ok, u.Username)
	}
	assert.False(t, m.IsAdmin())

	created, err = m.EnsureUsers(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestManager_EnsureUsersImportsLegacyFile(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	path := filepath.Join(t.TempDir(), LegacyUsersFile)
	legacy := `{"admin": ["troca123", "administrador"], "12345678901": ["12345", "Cliente"], "vazio": []}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	created, err := m.EnsureUsers(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	ok, err := m.Authenticate(ctx, "admin", "troca123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.IsAdmin())

	ok, err = m.Authenticate(ctx, "12345678901", "12345")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, m.IsAdmin())
}

func TestManager_EnsureUsersAddsMissingAdmin(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	path := filepath.Join(t.TempDir(), LegacyUsersFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"bia": ["x", "usuario"]}`), 0o600))

	created, err := m.EnsureUsers(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	ok, err := m.Authenticate(ctx, AdminUsername, "admin123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_EnsureUsersFallsBackOnBrokenFile(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	path := filepath.Join(t.TempDir(), LegacyUsersFile)
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	created, err := m.EnsureUsers(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
}
