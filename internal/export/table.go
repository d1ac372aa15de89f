// Package export flattens the policy collection into a table and writes it
// to spreadsheet-friendly destinations.
package export

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/seguros/internal/model"
)

// ErrNothingToExport is returned when there are no policies.
var ErrNothingToExport = errors.New("no policies to export")

// BaseColumns are the policy fields written before the coverage columns.
var BaseColumns = []string{
	"numero_apolice",
	"cpf_cliente",
	"tipo_seguro",
	"status_apolice",
	"data_inicio_apolice",
	"data_fim_apolice",
	"valor_assegurado",
	"data_cancelamento",
	"motivo_cancelamento",
}

// CurrencyFormat is the number format of the insured value column.
const CurrencyFormat = `"R$" #,##0.00`

// Table is a header row plus data rows of equal width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Writer stores a table somewhere.
type Writer interface {
	Write(ctx context.Context, table Table) error
}

// BuildTable puts one policy per row. The coverage payload is spread over
// extra columns: the union of payload keys in the order first seen. A
// payload key that collides with a base column is prefixed with
// "dados_especificos.".
func BuildTable(policies []model.Policy) (Table, error) {
	if len(policies) == 0 {
		return Table{}, ErrNothingToExport
	}

	headers := append([]string(nil), BaseColumns...)
	column := make(map[string]int, len(headers))
	for i, h := range headers {
		column[h] = i
	}

	type cell struct {
		key   string
		value string
	}
	extras := make([][]cell, len(policies))
	for i, p := range policies {
		for _, f := range p.CoverageFields() {
			key := f.Key
			if base, ok := column[key]; ok && base < len(BaseColumns) {
				key = "dados_especificos." + key
			}
			if _, ok := column[key]; !ok {
				column[key] = len(headers)
				headers = append(headers, key)
			}
			extras[i] = append(extras[i], cell{key: key, value: f.Value})
		}
	}

	rows := make([][]string, 0, len(policies))
	for i, p := range policies {
		row := make([]string, len(headers))
		copy(row, []string{
			p.Number.String(),
			string(p.ClientCPF),
			string(p.Type),
			string(p.Status),
			string(p.Start),
			string(p.End),
			insuredValue(p),
			string(p.CancelledOn),
			p.CancelReason,
		})
		for _, c := range extras[i] {
			row[column[c.key]] = c.value
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}, nil
}

// insuredValue leaves the cell empty for a policy without a value.
func insuredValue(p model.Policy) string {
	if p.InsuredValue.IsZero() {
		return ""
	}
	return p.InsuredValue.StringFixed(2)
}

// Column returns the index of header name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Values returns the header and the rows as spreadsheet cells. Policy
// numbers become integers and insured values become floats so the sheet
// can sum and format them. Anything else stays text.
func (t Table) Values() [][]any {
	numberCol := t.Column("numero_apolice")
	valueCol := t.Column("valor_assegurado")

	values := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	values = append(values, header)

	for _, row := range t.Rows {
		out := make([]any, len(row))
		for i, cell := range row {
			out[i] = cell
			switch i {
			case numberCol:
				if n, err := strconv.Atoi(cell); err == nil {
					out[i] = n
				}
			case valueCol:
				if d, err := decimal.NewFromString(cell); err == nil {
					out[i] = d.InexactFloat64()
				}
			}
		}
		values = append(values, out)
	}
	return values
}
