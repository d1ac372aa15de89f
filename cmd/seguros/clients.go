package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
)

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"clientes"},
		Short:   "Manage clients",
		Long:    `List, inspect and register the holders of insurance policies.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all clients",
		Args:  cobra.NoArgs,
		RunE:  withApp(model.RoleUser, runClientsList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <cpf>",
		Short: "Show a client and their policies",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(model.RoleUser, runClientsShow),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Register a client without a policy",
		Args:  cobra.NoArgs,
		RunE:  withApp(model.RoleAdmin, runClientsAdd),
	})

	return cmd
}

func runClientsList(_ *cobra.Command, a *app, _ []string) error {
	clients := a.session.Clients()
	if len(clients) == 0 {
		a.println(cli.InfoStyle.Render("Nenhum cliente cadastrado. Use 'seguros clients add' para cadastrar."))
		return nil
	}

	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})

	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			c.CPF.Format(),
			c.Name,
			c.BirthDate.String(),
			c.Phone,
			c.Email,
			fmt.Sprint(len(a.session.PoliciesForClient(c.CPF))),
		})
	}

	a.println(cli.FormatTitle(fmt.Sprintf("Clientes (%d)", len(clients))))
	a.println(report.NewFormatter().Table(
		[]string{"CPF", "Nome", "Nascimento", "Telefone", "Email", "Apólices"}, rows, 5))
	return nil
}

func runClientsShow(_ *cobra.Command, a *app, args []string) error {
	cpf := model.NormalizeCPF(args[0])
	client, ok := a.session.FindClient(cpf)
	if !ok {
		return common.NewUserError(fmt.Sprintf("Cliente não encontrado: %s", args[0]), nil)
	}

	a.println(cli.RenderDetails(client.Name, clientDetails(client)))

	policies := a.session.PoliciesForClient(cpf)
	if len(policies) == 0 {
		a.println(cli.SubtleStyle.Render("Nenhuma apólice para este cliente."))
		return nil
	}
	a.println(policyTable(a, policies))
	return nil
}

func runClientsAdd(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()

	client, err := a.prompter.ClientForm(ctx, model.Client{})
	if err != nil {
		return err
	}

	client, err = a.session.RegisterClient(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to register client: %w", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Cliente %s cadastrado (CPF %s).", client.Name, client.CPF.Format())))
	return nil
}

func clientDetails(c model.Client) [][2]string {
	return [][2]string{
		{"CPF", c.CPF.Format()},
		{"Nome", c.Name},
		{"Nascimento", c.BirthDate.String()},
		{"Endereço", c.Address},
		{"Telefone", c.Phone},
		{"Email", c.Email},
	}
}
