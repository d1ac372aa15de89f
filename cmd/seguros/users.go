package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/auth"
	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
	"github.com/Veraticus/seguros/internal/storage"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"usuarios"},
		Short:   "Manage login accounts",
		Long: `List, create and remove the accounts allowed to use seguros.
Only administrators may manage accounts; the admin account cannot be removed.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE:  withAuth(runUsersList),
	})

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE:  withAuth(runUsersAdd),
	}
	add.Flags().String("role", string(model.RoleUser), "account role (administrador, usuario)")
	add.Flags().String("secret", "", "account password (prompted when omitted)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <username>",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE:  withAuth(runUsersRemove),
	})

	return cmd
}

// withAuth wraps a command body that only needs an administrator logged in
// to the credential store.
func withAuth(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openAuth(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.login(cmd.Context(), model.RoleAdmin); err != nil {
			return err
		}
		return run(cmd, a, args)
	}
}

func runUsersList(cmd *cobra.Command, a *app, _ []string) error {
	users, err := a.auth.List(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		lastLogin := "-"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Local().Format("02/01/2006 15:04")
		}
		rows = append(rows, []string{u.Username, string(u.Role), u.CreatedAt.Local().Format("02/01/2006"), lastLogin})
	}

	a.println(cli.FormatTitle(fmt.Sprintf("Usuários (%d)", len(users))))
	a.println(report.NewFormatter().Table([]string{"Usuário", "Perfil", "Criado em", "Último acesso"}, rows))
	return nil
}

func runUsersAdd(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	username := args[0]

	rawRole, _ := cmd.Flags().GetString("role")
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Perfil inválido: %s", rawRole), err)
	}

	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		if secret, err = a.prompter.AskSecret(ctx, "Senha do novo usuário"); err != nil {
			return err
		}
		again, err := a.prompter.AskSecret(ctx, "Confirme a senha")
		if err != nil {
			return err
		}
		if again != secret {
			return common.NewUserError("As senhas não conferem.", nil)
		}
	}

	if err := a.auth.Register(ctx, username, secret, role); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserExists):
			return common.NewUserError(fmt.Sprintf("O usuário %s já existe.", username), err)
		case errors.Is(err, auth.ErrInvalidInput):
			return common.NewUserError("Usuário e senha são obrigatórios.", err)
		}
		return err
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Usuário %s criado com perfil %s.", username, role)))
	return nil
}

func runUsersRemove(cmd *cobra.Command, a *app, args []string) error {
	username := args[0]
	if err := a.auth.Remove(cmd.Context(), username); err != nil {
		switch {
		case errors.Is(err, auth.ErrProtectedUser):
			return common.NewUserError(fmt.Sprintf("O usuário %s não pode ser removido.", username), err)
		case errors.Is(err, storage.ErrNotFound):
			return common.NewUserError(fmt.Sprintf("Usuário não encontrado: %s", username), err)
		}
		return err
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Usuário %s removido.", username)))
	return nil
}
