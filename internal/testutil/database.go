// Package testutil provides test utilities for the seguros project: isolated
// data directories, an in-memory credential store and fixture builders.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/seguros/internal/auth"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// TestDB is an in-memory credential store with a manager on top.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Auth    *auth.Manager
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database. Cleanup is automatic.
//
// Example:
//
//	db := testutil.SetupTestDB(t).WithUser("ana", "segredo", model.RoleUser)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{
		Storage: store,
		Auth:    auth.NewManager(store, auth.WithBcryptCost(bcrypt.MinCost)),
		t:       t,
	}
}

// WithUser registers a user or fails the test.
func (db *TestDB) WithUser(username, secret string, role model.Role) *TestDB {
	db.t.Helper()
	if err := db.Auth.Register(context.Background(), username, secret, role); err != nil {
		db.t.Fatalf("failed to register user %q: %v", username, err)
	}
	return db
}

// LoggedInAs registers the user and authenticates as them.
func (db *TestDB) LoggedInAs(username, secret string, role model.Role) *TestDB {
	db.t.Helper()
	db.WithUser(username, secret, role)
	ok, err := db.Auth.Authenticate(context.Background(), username, secret)
	if err != nil || !ok {
		db.t.Fatalf("failed to authenticate %q: ok=%v err=%v", username, ok, err)
	}
	return db
}

// TestData is an isolated data directory with a file store.
type TestData struct {
	Files *storage.FileStore
	Dir   string
	t     *testing.T
}

// SetupTestData creates a file store in a temporary directory.
func SetupTestData(t *testing.T) *TestData {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return &TestData{Files: files, Dir: dir, t: t}
}

// Seed writes the three collections. Nil slices are skipped.
func (d *TestData) Seed(clients []model.Client, policies []model.Policy, claims []model.Claim) *TestData {
	d.t.Helper()
	ctx := context.Background()
	if clients != nil {
		if err := d.Files.SaveClients(ctx, clients); err != nil {
			d.t.Fatalf("failed to seed clients: %v", err)
		}
	}
	if policies != nil {
		if err := d.Files.SavePolicies(ctx, policies); err != nil {
			d.t.Fatalf("failed to seed policies: %v", err)
		}
	}
	if claims != nil {
		if err := d.Files.SaveClaims(ctx, claims); err != nil {
			d.t.Fatalf("failed to seed claims: %v", err)
		}
	}
	return d
}

// WriteRaw writes data verbatim to the file for kind.
func (d *TestData) WriteRaw(kind storage.Kind, data string) *TestData {
	d.t.Helper()
	if err := os.WriteFile(filepath.Join(d.Dir, string(kind)), []byte(data), 0o600); err != nil {
		d.t.Fatalf("failed to write %s: %v", kind, err)
	}
	return d
}

// WriteLegacy writes the combined legacy file from flat records.
func (d *TestData) WriteLegacy(records ...map[string]any) *TestData {
	d.t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		d.t.Fatalf("failed to encode legacy records: %v", err)
	}
	return d.WriteRaw(storage.KindLegacy, string(data))
}

// Exists reports whether the file for kind is present.
func (d *TestData) Exists(kind storage.Kind) bool {
	_, err := os.Stat(filepath.Join(d.Dir, string(kind)))
	return err == nil
}
