package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/seguros/internal/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileStore_LoadAbsentFiles(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	clients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.NotNil(t, clients)

	policies, err := store.LoadPolicies(ctx)
	require.NoError(t, err)
	assert.Empty(t, policies)

	claims, err := store.LoadClaims(ctx)
	require.NoError(t, err)
	assert.Empty(t, claims)

	assert.False(t, store.Exists(KindPolicies))
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	clients := []model.Client{{CPF: "12345678901", Name: "João & Maria", BirthDate: "01/02/1980"}}
	policies := []model.Policy{{
		Number:       1,
		ClientCPF:    "12345678901",
		Type:         model.CoverageResidential,
		Status:       model.StatusActive,
		Start:        "01/01/2024",
		End:          "01/01/2025",
		InsuredValue: decimal.RequireFromString("250000.75"),
		Coverage:     model.ResidentialCoverage{PropertyAddress: "Rua São Jorge, 5", Construction: "Alvenaria"},
	}}
	claims := []model.Claim{{PolicyNumber: 1, Date: "10/03/2024", Description: "Incêndio", Status: model.ClaimUnderReview}}

	require.NoError(t, store.SaveClients(ctx, clients))
	require.NoError(t, store.SavePolicies(ctx, policies))
	require.NoError(t, store.SaveClaims(ctx, claims))

	gotClients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, clients, gotClients)

	gotPolicies, err := store.LoadPolicies(ctx)
	require.NoError(t, err)
	require.Len(t, gotPolicies, 1)
	assert.Equal(t, policies[0].Coverage, gotPolicies[0].Coverage)
	assert.True(t, policies[0].InsuredValue.Equal(gotPolicies[0].InsuredValue))

	gotClaims, err := store.LoadClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, claims, gotClaims)
}

func TestFileStore_EncodingIsReadable(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.SaveClients(ctx, []model.Client{{CPF: "12345678901", Name: "João & Maria"}}))

	data, err := os.ReadFile(store.Path(KindClients))
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "João & Maria")
	assert.Contains(t, text, "\n    {\n")
	assert.Contains(t, text, `"cpf": "12345678901"`)
}

func TestFileStore_SaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.SaveClaims(ctx, nil))
	data, err := os.ReadFile(store.Path(KindClaims))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestFileStore_DecodeFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, os.WriteFile(store.Path(KindPolicies), []byte("{not json"), 0o600))

	policies, err := store.LoadPolicies(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "apolices.json")
	assert.Empty(t, policies)
	assert.NotNil(t, policies)
}

func TestFileStore_WriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	// A directory in place of the file makes the write fail.
	require.NoError(t, os.Mkdir(store.Path(KindPolicies), 0o750))

	err := store.SavePolicies(ctx, []model.Policy{{Number: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SaveClients(ctx, []model.Client{{CPF: "12345678901"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Exists(KindClients))
}

func TestFileStore_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.SaveClients(ctx, []model.Client{{CPF: "11111111111", Name: "Original"}}))

	snap, err := store.Snapshot(KindClients, KindPolicies)
	require.NoError(t, err)
	assert.NotNil(t, snap[KindClients])
	assert.Nil(t, snap[KindPolicies])

	require.NoError(t, store.SaveClients(ctx, []model.Client{{CPF: "22222222222", Name: "Changed"}}))
	require.NoError(t, store.SavePolicies(ctx, []model.Policy{{Number: 9}}))

	require.NoError(t, store.Restore(snap))

	clients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Original", clients[0].Name)
	assert.False(t, store.Exists(KindPolicies))
}

func TestFileStore_SnapshotUnknownKind(t *testing.T) {
	store := newTestFileStore(t)
	_, err := store.Snapshot(Kind("outro.json"))
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestFileStore_LegacyFile(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	legacy := `[{"cpf": "12345678901", "nome": "Ana"}, {"cpf": "98765432100"}]`
	require.NoError(t, os.WriteFile(store.Path(KindLegacy), []byte(legacy), 0o600))

	records, err := store.LoadLegacy(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.NoError(t, store.MarkLegacyMigrated())
	assert.False(t, store.Exists(KindLegacy))
	_, err = os.Stat(filepath.Join(store.Dir(), "seguros.json.migrated"))
	assert.NoError(t, err)

	assert.Error(t, store.MarkLegacyMigrated())
}
