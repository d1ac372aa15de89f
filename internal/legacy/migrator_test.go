package legacy

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

func rawRecords(t *testing.T, text string) []json.RawMessage {
	t.Helper()
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	return records
}

func writeLegacy(t *testing.T, store *storage.FileStore, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.Path(storage.KindLegacy), []byte(text), 0o600))
}

func TestSplit_FirstClientOccurrenceWins(t *testing.T) {
	records := rawRecords(t, `[
		{"cpf": "123.456.789-01", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida"},
		{"cpf": "12345678901", "nome": "Ana Maria", "numero_apolice": 2, "tipo_seguro": "Vida"},
		{"cpf": "98765432100", "nome": "Bruno"}
	]`)

	result := Split(records, nil)

	require.Len(t, result.Clients, 2)
	assert.Equal(t, "Ana", result.Clients[0].Name)
	assert.Equal(t, model.CPF("12345678901"), result.Clients[0].CPF)
	assert.Equal(t, "Bruno", result.Clients[1].Name)
	assert.Len(t, result.Policies, 2)
	assert.Empty(t, result.Skipped)
}

func TestSplit_PolicyDefaultsAndPayload(t *testing.T) {
	records := rawRecords(t, `[
		{"cpf": "12345678901", "numero_apolice": 1, "tipo_seguro": "Automóvel", "valor_assegurado": 30000,
		 "data_inicio_apolice": "01/01/2024", "data_fim_apolice": "01/01/2025",
		 "dados_especificos": {"marca": "Fiat", "modelo": "Uno", "placa": "ABC1234"}},
		{"cpf": "12345678901", "numero_apolice": 2, "tipo_seguro": "Vida", "status_apolice": "Pendente"},
		{"cpf": "12345678901", "numero_apolice": 3, "tipo_seguro": "Viagem", "dados_especificos": {"destino": "Roma"}}
	]`)

	result := Split(records, nil)
	require.Len(t, result.Policies, 3)

	auto := result.Policies[0]
	assert.Equal(t, model.StatusActive, auto.Status)
	assert.Equal(t, model.AutoCoverage{Brand: "Fiat", Model: "Uno", Plate: "ABC1234"}, auto.Coverage)
	assert.Equal(t, "30000", auto.InsuredValue.String())
	assert.True(t, auto.CancelledOn.IsZero())

	assert.Equal(t, model.StatusPending, result.Policies[1].Status)
	assert.Equal(t, model.LifeCoverage{}, result.Policies[1].Coverage)

	assert.Nil(t, result.Policies[2].Coverage)
	assert.JSONEq(t, `{"destino": "Roma"}`, string(result.Policies[2].RawCoverage()))
}

func TestSplit_SkipsUnusablePolicies(t *testing.T) {
	records := rawRecords(t, `[
		{"nome": "Sem CPF", "numero_apolice": 1, "tipo_seguro": "Vida"},
		{"cpf": "12345678901", "numero_apolice": "abc", "tipo_seguro": "Vida"},
		{"cpf": "12345678901", "numero_apolice": 2, "tipo_seguro": "Vida", "data_sinistro": "05/05/2024"},
		{"cpf": "12345678901", "numero_apolice": 2, "tipo_seguro": "Vida", "data_sinistro": "06/05/2024"},
		{"cpf": "12345678901", "valor_assegurado": "muito"},
		{"cpf": "12345678901", "numero_apolice": "3", "tipo_seguro": "Vida"}
	]`)

	result := Split(records, nil)

	require.Len(t, result.Policies, 2)
	assert.Equal(t, model.PolicyNumber(2), result.Policies[0].Number)
	assert.Equal(t, model.PolicyNumber(3), result.Policies[1].Number)
	require.Len(t, result.Claims, 1)
	assert.Equal(t, model.Date("05/05/2024"), result.Claims[0].Date)

	require.Len(t, result.Skipped, 4)
	indexes := make([]int, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		indexes = append(indexes, s.Index)
	}
	assert.Equal(t, []int{0, 1, 3, 4}, indexes)
}

func TestSplit_BrokenPolicyKeepsClient(t *testing.T) {
	records := rawRecords(t, `[
		{"cpf": "12345678901", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida", "valor_assegurado": "muito"},
		{"cpf": "12345678901", "nome": "Ana Maria", "numero_apolice": 2, "tipo_seguro": "Vida"},
		{"cpf": 123, "nome": "Sem CPF válido"}
	]`)

	result := Split(records, nil)

	require.Len(t, result.Clients, 1)
	assert.Equal(t, "Ana", result.Clients[0].Name)
	require.Len(t, result.Policies, 1)
	assert.Equal(t, model.PolicyNumber(2), result.Policies[0].Number)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 0, result.Skipped[0].Index)
	assert.Contains(t, result.Skipped[0].Reason, "malformed record")
	assert.Equal(t, 2, result.Skipped[1].Index)
}

func TestMigrator_AbsentFieldsStayAbsent(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeLegacy(t, store, `[{"cpf": "12345678901", "numero_apolice": "5", "tipo_seguro": "Automóvel"}]`)

	_, err = NewMigrator(store).Migrate(ctx)
	require.NoError(t, err)

	var written []map[string]any
	data, err := os.ReadFile(store.Path(storage.KindPolicies))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 1)

	for _, key := range []string{"data_inicio_apolice", "data_fim_apolice", "valor_assegurado"} {
		assert.NotContains(t, written[0], key)
	}
	assert.Equal(t, "Automóvel", written[0]["tipo_seguro"])
}

func TestSplit_ReportsProgress(t *testing.T) {
	records := rawRecords(t, `[{"cpf": "1"}, {"cpf": "2"}, {"cpf": "3"}]`)

	var calls [][2]int
	Split(records, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestMigrator_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	writeLegacy(t, store, `[{"cpf": "12345678901", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida",
		"data_inicio_apolice": "01/01/2023", "data_fim_apolice": "01/01/2025",
		"data_sinistro": "01/01/2024", "descricao_sinistro": "Internação", "status_sinistro": "Em Análise"}]`)

	m := NewMigrator(store)
	require.True(t, m.ShouldMigrate(nil))

	result, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.RunID.String())

	clients, err := store.LoadClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	policies, err := store.LoadPolicies(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, model.PolicyNumber(1), policies[0].Number)

	claims, err := store.LoadClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, model.PolicyNumber(1), claims[0].PolicyNumber)

	assert.False(t, store.Exists(storage.KindLegacy))
	_, err = os.Stat(store.Path(storage.KindLegacy) + storage.MigratedSuffix)
	assert.NoError(t, err)
	assert.False(t, m.ShouldMigrate(nil))
}

func TestMigrator_ShouldMigrate(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := NewMigrator(store)

	assert.False(t, m.ShouldMigrate(nil))

	writeLegacy(t, store, `[]`)
	assert.True(t, m.ShouldMigrate(nil))
	assert.True(t, m.ShouldMigrate([]model.Policy{}))
	assert.False(t, m.ShouldMigrate([]model.Policy{{Number: 1}}))
}

func TestMigrator_UnreadableLegacyFile(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeLegacy(t, store, `{broken`)

	_, err = NewMigrator(store).Migrate(context.Background())
	assert.ErrorIs(t, err, ErrMigration)
	assert.ErrorIs(t, err, storage.ErrDecode)
	assert.True(t, store.Exists(storage.KindLegacy))
	assert.False(t, store.Exists(storage.KindClients))
}

// failingStore fails SavePolicies after clients have been written.
type failingStore struct {
	*storage.FileStore
	renameErr error
	failSave  bool
}

func (f *failingStore) SavePolicies(ctx context.Context, policies []model.Policy) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.FileStore.SavePolicies(ctx, policies)
}

func (f *failingStore) MarkLegacyMigrated() error {
	if f.renameErr != nil {
		return f.renameErr
	}
	return f.FileStore.MarkLegacyMigrated()
}

func TestMigrator_WriteFailureRestoresFiles(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.SaveClients(ctx, []model.Client{{CPF: "99999999999", Name: "Existente"}}))
	writeLegacy(t, fs, `[{"cpf": "12345678901", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida"}]`)

	_, err = NewMigrator(&failingStore{FileStore: fs, failSave: true}).Migrate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigration)

	clients, err := fs.LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Existente", clients[0].Name)
	assert.False(t, fs.Exists(storage.KindPolicies))
	assert.False(t, fs.Exists(storage.KindClaims))
	assert.True(t, fs.Exists(storage.KindLegacy))
}

func TestMigrator_RenameFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeLegacy(t, fs, `[{"cpf": "12345678901", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida"}]`)

	store := &failingStore{FileStore: fs, renameErr: errors.New("permission denied")}
	result, err := NewMigrator(store).Migrate(ctx)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "seguros.json.migrated")

	policies, err := fs.LoadPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
	assert.True(t, fs.Exists(storage.KindLegacy))
}

func TestMigrator_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeLegacy(t, fs, `[{"cpf": "12345678901", "nome": "Ana", "numero_apolice": 1, "tipo_seguro": "Vida"}]`)

	store := &failingStore{FileStore: fs, renameErr: errors.New("busy")}
	first, err := NewMigrator(store).Migrate(ctx)
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(fs.Path(storage.KindPolicies))
	require.NoError(t, err)

	second, err := NewMigrator(store).Migrate(ctx)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(fs.Path(storage.KindPolicies))
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
	assert.NotEqual(t, first.RunID, second.RunID)
}
