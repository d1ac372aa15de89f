package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes a table to a CSV file at Path, replacing it.
type CSVWriter struct {
	logger *slog.Logger
	Path   string
	Comma  rune
}

// NewCSVWriter creates a writer for path. A zero comma means ','.
func NewCSVWriter(path string, comma rune, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if comma == 0 {
		comma = ','
	}
	return &CSVWriter{Path: path, Comma: comma, logger: logger}
}

// Write implements Writer. The file starts with a UTF-8 byte order mark so
// spreadsheet programs detect the encoding of accented text.
func (w *CSVWriter) Write(ctx context.Context, table Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(w.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("\ufeff"); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = w.Comma
	if err := cw.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write export rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	w.logger.Info("policies exported", "file", w.Path, "rows", len(table.Rows))
	return nil
}
