package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/config"
	"github.com/Veraticus/seguros/internal/export"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/sheets"
)

// DefaultExportFile is written in the data directory when no --output is given.
const DefaultExportFile = "apolices_export.xlsx"

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export policies to Excel, CSV or Google Sheets",
		Long: `Export every policy, one row each, with the coverage fields flattened
into columns.

By default an Excel workbook is written; an --output ending in .csv writes a
CSV file instead. With --sheets the same table is uploaded to Google Sheets,
using either a service account or the OAuth2 refresh token saved by
'seguros export sheets-auth'.`,
		Args: cobra.NoArgs,
		RunE: withApp(model.RoleAdmin, runExport),
	}

	cmd.Flags().StringP("output", "o", "", ".xlsx or .csv file to write (default: <data.dir>/"+DefaultExportFile+")")
	cmd.Flags().String("comma", ";", "CSV field separator")
	cmd.Flags().Bool("sheets", false, "upload to Google Sheets instead of writing a file")
	cmd.Flags().String("spreadsheet-id", "", "spreadsheet to update (overrides config)")

	_ = viper.BindPFlag("sheets.spreadsheet_id", cmd.Flags().Lookup("spreadsheet-id"))

	cmd.AddCommand(sheetsAuthCmd())

	return cmd
}

func runExport(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	toSheets, _ := cmd.Flags().GetBool("sheets")

	table, err := export.BuildTable(a.session.Policies())
	if err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			return common.NewUserError("Não há apólices para exportar.", err)
		}
		return err
	}

	if toSheets {
		return exportSheets(cmd, a, table)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(a.cfg.DataDir, DefaultExportFile)
	}
	output = config.ExpandPath(output)

	writer, err := fileWriter(cmd, output)
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, table); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("%d apólices exportadas para %s.", len(table.Rows), output)))
	return nil
}

// fileWriter picks the export format from the file extension.
func fileWriter(cmd *cobra.Command, path string) (export.Writer, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return export.NewXLSXWriter(path, slog.Default()), nil
	}

	comma, _ := cmd.Flags().GetString("comma")
	sep, size := utf8.DecodeRuneInString(comma)
	if size == 0 || size != len(comma) {
		return nil, common.NewUserError(fmt.Sprintf("Separador inválido: %q", comma), nil)
	}
	return export.NewCSVWriter(path, sep, slog.Default()), nil
}

func exportSheets(cmd *cobra.Command, a *app, table export.Table) error {
	ctx := cmd.Context()

	if !viper.IsSet("sheets.refresh_token") && viper.GetString("sheets.service_account_path") == "" {
		if tokenFile, err := sheetsTokenFile(); err == nil {
			if token, err := sheets.LoadToken(tokenFile); err == nil && token.RefreshToken != "" {
				viper.Set("sheets.refresh_token", token.RefreshToken)
			}
		}
	}

	sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return common.NewUserError("Google Sheets não configurado. Rode 'seguros export sheets-auth' ou configure sheets.service_account_path.", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	if err := writer.Write(ctx, table); err != nil {
		return fmt.Errorf("failed to export to Google Sheets: %w", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("%d apólices enviadas para a planilha %s.", len(table.Rows), writer.SpreadsheetID())))
	if sheetsConfig.SpreadsheetID == "" {
		a.println(cli.InfoStyle.Render("Para atualizar a mesma planilha, configure sheets.spreadsheet_id: " + writer.SpreadsheetID()))
	}
	return nil
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a URL to authorize access with your Google account
2. Wait for the redirect on a local callback server
3. Save the token for future exports`,
		Args: cobra.NoArgs,
		RunE: runSheetsAuth,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("callback", sheets.DefaultCallbackAddr, "address of the local callback server")

	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("%w: set sheets.client_id and sheets.client_secret or use --client-id and --client-secret", common.ErrMissingConfig)
	}

	tokenFile, err := sheetsTokenFile()
	if err != nil {
		return err
	}
	callback, _ := cmd.Flags().GetString("callback")

	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	token, err := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		CallbackAddr: callback,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess("Autenticação concluída. Token salvo em "+tokenFile)) //nolint:forbidigo // User-facing output
	if token.RefreshToken == "" {
		fmt.Fprintln(out, cli.FormatWarning("O Google não devolveu um refresh token; revogue o acesso e tente de novo.")) //nolint:forbidigo // User-facing output
	}
	return nil
}

// sheetsTokenFile is where the OAuth2 token is kept.
func sheetsTokenFile() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "seguros", "sheets-token.json"), nil
}
