package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/export"
)

// CurrencyPattern formats the insured value column.
const CurrencyPattern = export.CurrencyFormat

// Writer uploads export tables to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ export.Writer = (*Writer)(nil)

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(service, config, logger), nil
}

func newWriter(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SheetTitle == "" {
		config.SheetTitle = DefaultSheetTitle
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}
}

// Write replaces the sheet contents with the table.
func (w *Writer) Write(ctx context.Context, table export.Table) error {
	if len(table.Rows) == 0 {
		return export.ErrNothingToExport
	}

	w.logger.Info("starting sheets export",
		"rows", len(table.Rows),
		"columns", len(table.Headers))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     w.config.RetryDelay * 30,
	}

	var spreadsheetID string
	var sheetID int64
	err := common.WithRetry(ctx, func() error {
		var getErr error
		spreadsheetID, sheetID, getErr = w.getOrCreateSpreadsheet(ctx)
		return classifyError(getErr)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := prepareValues(table)

	err = common.WithRetry(ctx, func() error {
		return classifyError(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyError(w.applyFormatting(ctx, spreadsheetID, sheetID, table))
		}, retryOpts)
		if err != nil {
			// The data is already written, so formatting is best effort.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// classifyError marks Google API failures for WithRetry. Rate limits and
// server errors are retried; any other 4xx response is final.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	case apiErr.Code >= http.StatusBadRequest:
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet and the id of the sheet
// the table goes into, adding the sheet when an existing spreadsheet lacks it.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		for _, sh := range existing.Sheets {
			if sh.Properties != nil && sh.Properties.Title == w.config.SheetTitle {
				return w.config.SpreadsheetID, sh.Properties.SheetId, nil
			}
		}

		sheetID, err := w.addSheet(ctx, w.config.SpreadsheetID)
		if err != nil {
			return "", 0, err
		}
		return w.config.SpreadsheetID, sheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: w.config.SheetTitle,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later exports reuse the same spreadsheet.
	w.config.SpreadsheetID = created.SpreadsheetId

	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}
	return created.SpreadsheetId, sheetID, nil
}

func (w *Writer) addSheet(ctx context.Context, spreadsheetID string) (int64, error) {
	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.SheetTitle},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("unable to add sheet %q: empty reply", w.config.SheetTitle)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// SpreadsheetID is the spreadsheet the writer targets, set after the first
// export when the writer created it.
func (w *Writer) SpreadsheetID() string {
	return w.config.SpreadsheetID
}

func (w *Writer) sheetRange(cell string) string {
	title := strings.ReplaceAll(w.config.SheetTitle, "'", "''")
	if cell == "" {
		return fmt.Sprintf("'%s'", title)
	}
	return fmt.Sprintf("'%s'!%s", title, cell)
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.sheetRange(""), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareValues turns the table into sheet rows.
func prepareValues(table export.Table) [][]any {
	return table.Values()
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.sheetRange(fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds and freezes the header, formats the insured value
// column as currency and resizes every column.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, table export.Table) error {
	totalRows := int64(len(table.Rows) + 1)
	columns := int64(len(table.Headers))

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
	}

	for i, h := range table.Headers {
		if h != "valor_assegurado" {
			continue
		}
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      totalRows,
					StartColumnIndex: int64(i),
					EndColumnIndex:   int64(i + 1),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: CurrencyPattern,
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	requests = append(requests,
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	)

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
