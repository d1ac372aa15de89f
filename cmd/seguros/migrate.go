package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
	"github.com/Veraticus/seguros/internal/session"
	"github.com/Veraticus/seguros/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy data and the credential database",
		Long: `Bring the data directory up to date.

The credential database schema is upgraded to the latest version, and when
no policies exist yet the single-file legacy store (seguros.json) is split
into clients, policies and claims. Both steps also run automatically when
any other command opens the data directory; this command reports on them.
With --status nothing is migrated.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetBool("status")
	if status {
		return withApp(model.RoleAdmin, runMigrateStatus, session.WithoutMigration())(cmd, args)
	}
	return withApp(model.RoleAdmin, runMigrateApply)(cmd, args)
}

func runMigrateStatus(cmd *cobra.Command, a *app, _ []string) error {
	version, err := a.db.SchemaVersion(cmd.Context())
	if err != nil {
		return err
	}

	legacy := "ausente"
	if a.files.Exists(storage.KindLegacy) {
		legacy = "presente"
		if a.report.MigrationPending {
			legacy = "presente, migração pendente"
		}
	}

	a.println(cli.RenderDetails(cli.ChartIcon+" Estado da migração", [][2]string{
		{"Banco de credenciais", a.db.Path()},
		{"Versão do esquema", fmt.Sprint(version)},
		{"Diretório de dados", a.files.Dir()},
		{"seguros.json", legacy},
		{"Clientes", fmt.Sprint(len(a.session.Clients()))},
		{"Apólices", fmt.Sprint(len(a.session.Policies()))},
		{"Sinistros", fmt.Sprint(len(a.session.Claims()))},
	}))
	return nil
}

func runMigrateApply(_ *cobra.Command, a *app, _ []string) error {
	result := a.report.Migration
	if result == nil {
		if a.report.MigrationErr != nil {
			return a.report.MigrationErr
		}
		a.println(cli.InfoStyle.Render("Nada a migrar: os dados já estão no formato atual."))
		return nil
	}

	slog.Info("legacy migration finished",
		"run_id", result.RunID,
		"records", result.Records,
		"skipped", len(result.Skipped))

	rows := make([][]string, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		rows = append(rows, []string{fmt.Sprint(s.Index), s.Reason})
	}
	if len(rows) > 0 {
		a.println(cli.FormatWarning("Registros ignorados:"))
		a.println(report.NewFormatter().Table([]string{"Registro", "Motivo"}, rows, 0))
	}
	return nil
}
