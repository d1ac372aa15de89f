package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/seguros/internal/auth"
	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/config"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/session"
	"github.com/Veraticus/seguros/internal/storage"
)

// app bundles everything a command needs once the operator is logged in.
type app struct {
	cfg      config.Config
	files    *storage.FileStore
	db       *storage.SQLiteStorage
	auth     *auth.Manager
	session  *session.Session
	report   *session.LoadReport
	prompter *cli.Prompter
	out      io.Writer
	errOut   io.Writer
}

// openApp loads the configuration, logs the operator in with the given role
// and opens the data files. Callers must call close.
func openApp(cmd *cobra.Command, role model.Role, extra ...session.Option) (*app, error) {
	ctx := cmd.Context()

	a, err := openAuth(cmd)
	if err != nil {
		return nil, err
	}

	if err := a.login(ctx, role); err != nil {
		a.close()
		return nil, err
	}

	files, err := storage.NewFileStore(a.cfg.DataDir, storage.WithLogger(slog.Default()))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	a.files = files

	progress := cli.NewProgress(a.errOut, "Migrando seguros.json...")
	opts := append([]session.Option{
		session.WithLogger(slog.Default()),
		session.WithRegistrar(a.auth, a.cfg.ClientDefaultSecret),
		session.WithStrictCPF(a.cfg.StrictCPF),
		session.WithMigrationProgress(progress.Update),
	}, extra...)
	sess, report, err := session.Open(ctx, files, opts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	a.session = sess
	a.report = report
	a.printLoadReport()

	return a, nil
}

// openAuth prepares the credential store without logging anyone in.
func openAuth(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	db, err := storage.NewSQLiteStorage(cfg.AuthDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	manager := auth.NewManager(db, auth.WithLogger(slog.Default()))
	legacyUsers := filepath.Join(cfg.DataDir, auth.LegacyUsersFile)
	created, err := manager.EnsureUsers(ctx, legacyUsers)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if created > 0 {
		slog.Info("seeded credential store", "users", created)
	}

	return &app{
		cfg:      cfg,
		db:       db,
		auth:     manager,
		prompter: cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}, nil
}

func (a *app) close() {
	if a.auth != nil {
		a.auth.Logout()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("failed to close credential store", "error", err)
		}
	}
}

// login authenticates with auth.user and auth.password, prompting for
// whatever is missing, and checks role.
func (a *app) login(ctx context.Context, role model.Role) error {
	username := a.cfg.User
	secret := a.cfg.Password

	var err error
	if username == "" {
		if username, err = a.prompter.AskRequired(ctx, "Usuário", ""); err != nil {
			return err
		}
	}
	if secret == "" {
		if secret, err = a.prompter.AskSecret(ctx, "Senha"); err != nil {
			return err
		}
	}

	ok, err := a.auth.Authenticate(ctx, username, secret)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewUserError("Usuário ou senha inválidos.", auth.ErrNotAuthenticated)
	}

	if err := a.auth.Require(role); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			return common.NewUserError("Acesso negado: operação restrita a administradores.", err)
		}
		return err
	}
	return nil
}

func (a *app) printLoadReport() {
	r := a.report
	if m := r.Migration; m != nil {
		a.printf(a.errOut, "%s\n", cli.FormatSuccess(fmt.Sprintf(
			"Dados legados migrados: %d clientes, %d apólices, %d sinistros.",
			len(m.Clients), len(m.Policies), len(m.Claims))))
		if len(m.Skipped) > 0 {
			a.printf(a.errOut, "%s\n", cli.FormatWarning(fmt.Sprintf("%d registros ignorados.", len(m.Skipped))))
		}
		for _, w := range m.Warnings {
			a.printf(a.errOut, "%s\n", cli.FormatWarning(w))
		}
	}
	if r.MigrationErr != nil {
		a.printf(a.errOut, "%s\n", cli.FormatError("Falha na migração dos dados legados: "+r.MigrationErr.Error()))
	}
	for _, err := range r.DecodeErrors {
		a.printf(a.errOut, "%s\n", cli.FormatWarning(err.Error()))
	}
}

func (a *app) printf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		slog.Warn("failed to write output", "error", err)
	}
}

func (a *app) println(s string) {
	a.printf(a.out, "%s\n", s)
}

// withApp wraps a command body that needs a logged in operator.
func withApp(role model.Role, run func(cmd *cobra.Command, a *app, args []string) error, opts ...session.Option) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, role, opts...)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

// parsePolicyNumber turns a command argument into a policy number.
func parsePolicyNumber(arg string) (model.PolicyNumber, error) {
	n, err := model.ParsePolicyNumber(arg)
	if err != nil {
		return 0, common.NewUserError(fmt.Sprintf("Número de apólice inválido: %s", arg), err)
	}
	return n, nil
}
