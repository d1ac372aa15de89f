package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/seguros/internal/auth"
	"github.com/Veraticus/seguros/internal/export"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
	"github.com/Veraticus/seguros/internal/testutil"
)

// run executes seguros against dataDir, feeding input to the prompts.
func run(t *testing.T, dataDir, input string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String() + errOut.String(), err
}

func asAdmin(args ...string) []string {
	return append([]string{"--user", auth.AdminUsername, "--password", "admin123"}, args...)
}

func asUser(args ...string) []string {
	return append([]string{"--user", "user1", "--password", "user123"}, args...)
}

func lines(answers ...string) string {
	return strings.Join(answers, "\n") + "\n"
}

// newLifePolicyAnswers fills the client form, the life coverage form and
// the policy terms for a client that does not exist yet.
var newLifePolicyAnswers = lines(
	"Ana Souza", "10/05/1985", "Rua A, 1", "11 99999-0000", "ana@example.com",
	"Pedro", "s", "n", "", "",
	"01/01/2024", "31/12/2030", "150000,00", "",
)

func TestLogin(t *testing.T) {
	data := testutil.SetupTestData(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := run(t, data.Dir, "", "--user", "admin", "--password", "nope", "clients", "list")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("prompts for missing credentials", func(t *testing.T) {
		out, err := run(t, data.Dir, lines("admin", "admin123"), "clients", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Nenhum cliente cadastrado")
	})

	t.Run("regular users cannot mutate", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asUser("policies", "create")...)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("regular users cannot see reports", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asUser("reports")...)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})
}

func TestPolicyLifecycle(t *testing.T) {
	data := testutil.SetupTestData(t)
	cpf := string(testutil.CPFAna)

	out, err := run(t, data.Dir, newLifePolicyAnswers,
		asAdmin("policies", "create", "--cpf", cpf, "--type", "Vida")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Apólice 1 criada para Ana Souza")
	assert.True(t, data.Exists(storage.KindPolicies))
	assert.True(t, data.Exists(storage.KindClients))

	t.Run("visible to regular users", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asUser("policies", "list")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Ana Souza")
		assert.Contains(t, out, "Vida")
		assert.Contains(t, out, "R$ 150,000.00")
	})

	t.Run("client login was created", func(t *testing.T) {
		out, err := run(t, data.Dir, "", "--user", cpf, "--password", "12345", "clients", "show", cpf)
		require.NoError(t, err)
		assert.Contains(t, out, "ana@example.com")
	})

	t.Run("show includes coverage", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("policies", "show", "1")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Pedro")
	})

	t.Run("register claim", func(t *testing.T) {
		out, err := run(t, data.Dir, lines("15/06/2025", "Internação", ""), asAdmin("claims", "register", "1")...)
		require.NoError(t, err, out)

		out, err = run(t, data.Dir, "", asUser("claims", "list")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Internação")
		assert.Contains(t, out, string(model.ClaimUnderReview))
	})

	t.Run("claim outside the term is rejected", func(t *testing.T) {
		_, err := run(t, data.Dir, lines("01/01/2040", "Fora", ""), asAdmin("claims", "register", "1")...)
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("second policy for the same client", func(t *testing.T) {
		answers := lines("n", "Maria", "s", "s", "s", "s", "01/02/2024", "01/02/2025", "5000", "2")
		out, err := run(t, data.Dir, answers, asAdmin("policies", "create", "--cpf", cpf, "--type", "Vida")...)
		require.NoError(t, err, out)
		assert.Contains(t, out, "Apólice 2 criada")
	})

	t.Run("reports", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("reports", "ranking")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Ana Souza")

		out, err = run(t, data.Dir, "", asAdmin("reports")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Apólices por Tipo")
		assert.Contains(t, out, "R$ 155,000.00")
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asAdmin("reports", "nope")...)
		assert.Error(t, err)
	})

	t.Run("cancel", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("policies", "cancel", "2", "--yes", "--reason", "Pedido do cliente")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Apólice 2 cancelada")

		_, err = run(t, data.Dir, "", asAdmin("policies", "edit", "2")...)
		assert.ErrorIs(t, err, model.ErrPolicyCancelled)

		out, err = run(t, data.Dir, "", asAdmin("policies", "list", "--status", string(model.StatusCancelled))...)
		require.NoError(t, err)
		assert.Contains(t, out, "Apólices (1)")
	})

	t.Run("cancel asks for confirmation", func(t *testing.T) {
		out, err := run(t, data.Dir, lines("n"), asAdmin("policies", "cancel", "1")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Cancelamento abortado")
	})

	t.Run("export csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "apolices.csv")
		out, err := run(t, data.Dir, "", asAdmin("export", "--output", path)...)
		require.NoError(t, err)
		assert.Contains(t, out, "2 apólices exportadas")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "numero_apolice;")
		assert.Contains(t, string(content), "Pedido do cliente")
	})

	t.Run("export xlsx by default", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("export")...)
		require.NoError(t, err)
		assert.Contains(t, out, "2 apólices exportadas")

		f, err := excelize.OpenFile(filepath.Join(data.Dir, DefaultExportFile))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		rows, err := f.GetRows(export.DefaultSheetName)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "numero_apolice", rows[0][0])
		assert.Contains(t, rows[2], "Pedido do cliente")
	})

	t.Run("invalid csv separator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "apolices.csv")
		_, err := run(t, data.Dir, "", asAdmin("export", "--output", path, "--comma", ";;")...)
		assert.Error(t, err)
	})
}

func TestPolicyNotFound(t *testing.T) {
	data := testutil.SetupTestData(t)

	_, err := run(t, data.Dir, "", asAdmin("policies", "show", "42")...)
	require.Error(t, err)

	_, err = run(t, data.Dir, "", asAdmin("policies", "show", "abc")...)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestExportEmpty(t *testing.T) {
	data := testutil.SetupTestData(t)

	_, err := run(t, data.Dir, "", asAdmin("export")...)
	assert.Error(t, err)
	assert.False(t, data.Exists(storage.Kind(DefaultExportFile)))
}

func TestClientsAdd(t *testing.T) {
	data := testutil.SetupTestData(t)
	answers := lines(string(testutil.CPFBruno), "Bruno Lima", "01/01/1980", "", "", "")

	out, err := run(t, data.Dir, answers, asAdmin("clients", "add")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Cliente Bruno Lima cadastrado")

	_, err = run(t, data.Dir, answers, asAdmin("clients", "add")...)
	assert.Error(t, err)

	out, err = run(t, data.Dir, "", asUser("clients", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Bruno Lima")
	assert.Contains(t, out, "Clientes (1)")
}

func TestMigrateLegacy(t *testing.T) {
	data := testutil.SetupTestData(t).WriteLegacy(
		map[string]any{
			"cpf": string(testutil.CPFCarla), "nome": "Carla Dias", "data_nascimento": "03/03/1975",
			"numero_apolice": 7, "tipo_seguro": "Automóvel", "status_apolice": "Ativa",
			"data_inicio_apolice": "01/01/2024", "data_fim_apolice": "31/12/2024", "valor_assegurado": 40000,
			"dados_especificos": map[string]any{"marca": "Fiat", "modelo": "Uno", "ano": "2015", "placa": "ABC1D23"},
		},
		map[string]any{"cpf": string(testutil.CPFBruno), "nome": "Bruno Lima", "data_nascimento": "01/01/1980"},
	)

	t.Run("status leaves the legacy file alone", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("migrate", "--status")...)
		require.NoError(t, err)
		assert.Contains(t, out, "presente, migração pendente")
		assert.Contains(t, out, "Versão do esquema")
		assert.NotContains(t, out, "Dados legados migrados")
		assert.True(t, data.Exists(storage.KindLegacy))
		assert.False(t, data.Exists(storage.KindPolicies))
	})

	t.Run("migrate splits the legacy file", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("migrate")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Dados legados migrados: 2 clientes, 1 apólices, 0 sinistros.")
		assert.False(t, data.Exists(storage.KindLegacy))
	})

	t.Run("nothing left to migrate", func(t *testing.T) {
		assert.True(t, data.Exists(storage.KindPolicies))

		out, err := run(t, data.Dir, "", asAdmin("migrate")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Nada a migrar")

		out, err = run(t, data.Dir, "", asAdmin("clients", "list")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Carla Dias")
		assert.Contains(t, out, "Bruno Lima")
	})
}

func TestMigrateRenameWarning(t *testing.T) {
	data := testutil.SetupTestData(t).WriteLegacy(
		map[string]any{"cpf": string(testutil.CPFCarla), "nome": "Carla Dias", "numero_apolice": 1, "tipo_seguro": "Vida"},
	)
	blocker := filepath.Join(data.Dir, string(storage.KindLegacy)+storage.MigratedSuffix)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o750))

	out, err := run(t, data.Dir, "", asAdmin("clients", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Dados legados migrados")
	assert.Contains(t, out, "seguros.json.migrated")
	assert.Contains(t, out, "Carla Dias")
}

func TestUsersCommands(t *testing.T) {
	data := testutil.SetupTestData(t)

	out, err := run(t, data.Dir, "", asAdmin("users", "add", "maria", "--secret", "s3nha", "--role", "usuario")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Usuário maria criado")

	_, err = run(t, data.Dir, "", asAdmin("users", "add", "maria", "--secret", "outra")...)
	assert.ErrorIs(t, err, storage.ErrUserExists)

	out, err = run(t, data.Dir, "", "--user", "maria", "--password", "s3nha", "clients", "list")
	require.NoError(t, err, out)

	t.Run("prompted secret must match", func(t *testing.T) {
		_, err := run(t, data.Dir, lines("um", "dois"), asAdmin("users", "add", "joao")...)
		assert.Error(t, err)
	})

	t.Run("list", func(t *testing.T) {
		out, err := run(t, data.Dir, "", asAdmin("users", "list")...)
		require.NoError(t, err)
		assert.Contains(t, out, "maria")
		assert.Contains(t, out, "administrador")
	})

	t.Run("admin is protected", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asAdmin("users", "remove", "admin")...)
		assert.ErrorIs(t, err, auth.ErrProtectedUser)
	})

	t.Run("remove", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asAdmin("users", "remove", "maria")...)
		require.NoError(t, err)

		_, err = run(t, data.Dir, "", "--user", "maria", "--password", "s3nha", "clients", "list")
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("regular users cannot manage accounts", func(t *testing.T) {
		_, err := run(t, data.Dir, "", asUser("users", "list")...)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})
}
