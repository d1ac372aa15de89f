package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// LegacyUsersFile is the credential file of the single-file layout.
const LegacyUsersFile = "usuarios.json"

// DefaultUser is an account created in an empty store.
type DefaultUser struct {
	Username string
	Secret   string
	Role     model.Role
}

// DefaultUsers returns the accounts seeded when nothing else is available.
func DefaultUsers() []DefaultUser {
	return []DefaultUser{
		{Username: AdminUsername, Secret: "admin123", Role: model.RoleAdmin},
		{Username: "user1", Secret: "user123", Role: model.RoleUser},
		{Username: "user2", Secret: "user456", Role: model.RoleUser},
	}
}

// EnsureUsers populates an empty store. When legacyPath names an existing
// usuarios.json its entries are imported, otherwise the defaults are
// created. The admin account is always present afterwards. It returns the
// number of accounts created.
func (m *Manager) EnsureUsers(ctx context.Context, legacyPath string) (int, error) {
	count, err := m.store.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	seed, err := readLegacyUsers(legacyPath)
	if err != nil {
		m.logger.Warn("ignoring legacy users file", "file", legacyPath, "error", err)
		seed = nil
	}
	if seed == nil {
		seed = DefaultUsers()
	} else {
		m.logger.Info("importing legacy users", "file", legacyPath, "users", len(seed))
	}
	if !hasUser(seed, AdminUsername) {
		seed = append(seed, DefaultUsers()[0])
	}

	created := 0
	for _, u := range seed {
		err := m.Register(ctx, u.Username, u.Secret, u.Role)
		if errors.Is(err, storage.ErrUserExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		created++
	}
	return created, nil
}

// readLegacyUsers decodes {"user": ["secret", "role"]}. A missing file
// returns nil with no error. Unknown roles become model.RoleUser.
func readLegacyUsers(path string) ([]DefaultUser, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	users := make([]DefaultUser, 0, len(names))
	for _, name := range names {
		entry := raw[name]
		if len(entry) == 0 || entry[0] == "" {
			continue
		}
		role := model.RoleUser
		if len(entry) > 1 {
			if parsed, err := model.ParseRole(entry[1]); err == nil {
				role = parsed
			}
		}
		users = append(users, DefaultUser{Username: name, Secret: entry[0], Role: role})
	}
	return users, nil
}

func hasUser(users []DefaultUser, name string) bool {
	for _, u := range users {
		if u.Username == name {
			return true
		}
	}
	return false
}
