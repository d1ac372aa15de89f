package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/seguros/internal/model"
)

func samplePolicies(t *testing.T) []model.Policy {
	t.Helper()
	var odd model.Policy
	require.NoError(t, json.Unmarshal([]byte(`{"numero_apolice": 3, "tipo_seguro": "Viagem",
		"dados_especificos": {"destino": "Lisboa", "status_apolice": "x"}}`), &odd))

	return []model.Policy{
		{
			Number: 1, ClientCPF: "12345678901", Type: model.CoverageAuto, Status: model.StatusActive,
			Start: "01/01/2024", End: "01/01/2025", InsuredValue: decimal.NewFromInt(50000),
			Coverage: model.AutoCoverage{Brand: "Fiat", Model: "Uno", Plate: "ABC1234"},
		},
		{
			Number: 2, ClientCPF: "98765432100", Type: model.CoverageLife, Status: model.StatusCancelled,
			Start: "01/01/2024", End: "01/01/2025", InsuredValue: decimal.RequireFromString("1234.5"),
			Coverage:    model.LifeCoverage{Beneficiaries: "Ana", Death: true},
			CancelledOn: "05/05/2024", CancelReason: "pedido",
		},
		odd,
	}
}

func TestBuildTable(t *testing.T) {
	table, err := BuildTable(samplePolicies(t))
	require.NoError(t, err)

	assert.Equal(t, BaseColumns, table.Headers[:len(BaseColumns)])
	extra := table.Headers[len(BaseColumns):]
	assert.Equal(t, "marca", extra[0])
	assert.Contains(t, extra, "beneficiários_separar_por_vírgula")
	assert.Contains(t, extra, "destino")
	assert.Contains(t, extra, "dados_especificos.status_apolice")

	require.Len(t, table.Rows, 3)
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Headers))
	}

	col := func(name string) int {
		for i, h := range table.Headers {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s not found", name)
		return -1
	}

	assert.Equal(t, "1", table.Rows[0][col("numero_apolice")])
	assert.Equal(t, "50000.00", table.Rows[0][col("valor_assegurado")])
	assert.Equal(t, "Fiat", table.Rows[0][col("marca")])
	assert.Empty(t, table.Rows[0][col("beneficiários_separar_por_vírgula")])

	assert.Equal(t, "1234.50", table.Rows[1][col("valor_assegurado")])
	assert.Equal(t, "pedido", table.Rows[1][col("motivo_cancelamento")])
	assert.Equal(t, "Sim", table.Rows[1][col("morte_var")])
	assert.Empty(t, table.Rows[1][col("marca")])

	assert.Equal(t, "Lisboa", table.Rows[2][col("destino")])
	assert.Equal(t, "x", table.Rows[2][col("dados_especificos.status_apolice")])
	assert.Empty(t, table.Rows[2][col("status_apolice")])
	assert.Empty(t, table.Rows[2][col("valor_assegurado")], "policy without a value")
}

func TestTable_Values(t *testing.T) {
	table, err := BuildTable(samplePolicies(t))
	require.NoError(t, err)

	values := table.Values()
	require.Len(t, values, 4)
	assert.Equal(t, "numero_apolice", values[0][0])

	value := table.Column("valor_assegurado")
	assert.Equal(t, 1, values[1][0])
	assert.Equal(t, 50000.0, values[1][value])
	assert.Equal(t, 1234.5, values[2][value])
	assert.Equal(t, "", values[3][value])
	assert.Equal(t, -1, table.Column("nope"))
}

func TestBuildTable_Empty(t *testing.T) {
	_, err := BuildTable(nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestCSVWriter(t *testing.T) {
	table, err := BuildTable(samplePolicies(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "apolices.csv")
	require.NoError(t, NewCSVWriter(path, ';', nil).Write(context.Background(), table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "\ufeff"))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, table.Headers, records[0])
	assert.Equal(t, table.Rows[1], records[2])
}

func TestCSVWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "x.csv")
	err := NewCSVWriter(path, 0, nil).Write(ctx, Table{Headers: []string{"a"}})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestXLSXWriter(t *testing.T) {
	table, err := BuildTable(samplePolicies(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "apolices.xlsx")
	require.NoError(t, NewXLSXWriter(path, nil).Write(context.Background(), table))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, table.Headers, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Lisboa", rows[3][table.Column("destino")])

	value, err := excelize.CoordinatesToCellName(table.Column("valor_assegurado")+1, 2)
	require.NoError(t, err)
	raw, err := f.GetCellValue(DefaultSheetName, value, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "50000", raw)
}

func TestXLSXWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "x.xlsx")
	err := NewXLSXWriter(path, nil).Write(ctx, Table{Headers: []string{"a"}})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
