package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the worksheet the policies are written to.
const DefaultSheetName = "Apólices"

// XLSXWriter writes a table to an Excel workbook at Path, replacing it.
type XLSXWriter struct {
	logger *slog.Logger
	Path   string
	Sheet  string
}

// NewXLSXWriter creates a writer for path.
func NewXLSXWriter(path string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{Path: path, Sheet: DefaultSheetName, logger: logger}
}

// Write implements Writer. The header is bold and frozen, and the insured
// value column uses the currency format.
func (w *XLSXWriter) Write(ctx context.Context, table Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", w.Sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range table.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(w.Sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := w.format(f, table); err != nil {
		return err
	}

	if dir := filepath.Dir(w.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("policies exported", "file", w.Path, "rows", len(table.Rows))
	return nil
}

func (w *XLSXWriter) format(f *excelize.File, table Table) error {
	if len(table.Headers) == 0 {
		return nil
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(table.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(w.Sheet, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetPanes(w.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if col := table.Column("valor_assegurado"); col >= 0 && len(table.Rows) > 0 {
		format := CurrencyFormat
		currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return fmt.Errorf("failed to create currency style: %w", err)
		}
		top, _ := excelize.CoordinatesToCellName(col+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(col+1, len(table.Rows)+1)
		if err := f.SetCellStyle(w.Sheet, top, bottom, currency); err != nil {
			return fmt.Errorf("failed to style insured values: %w", err)
		}
	}

	for i := range table.Headers {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(w.Sheet, name, name, columnWidth(table, i)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

// columnWidth fits the longest cell of column i, within limits.
func columnWidth(table Table, i int) float64 {
	widest := utf8.RuneCountInString(table.Headers[i])
	for _, row := range table.Rows {
		if n := utf8.RuneCountInString(row[i]); n > widest {
			widest = n
		}
	}
	return float64(min(max(widest+2, 10), 60))
}
