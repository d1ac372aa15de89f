package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
	"github.com/Veraticus/seguros/internal/session"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "claims",
		Aliases: []string{"sinistros"},
		Short:   "Manage claims",
		Long: `List claims or register one against a policy. A policy holds at most
one claim; registering again replaces it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all claims",
		Args:  cobra.NoArgs,
		RunE:  withApp(model.RoleUser, runClaimsList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "register <policy-number>",
		Short: "Register the claim of a policy",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(model.RoleAdmin, runClaimsRegister),
	})

	return cmd
}

func runClaimsList(_ *cobra.Command, a *app, _ []string) error {
	claims := a.session.Claims()
	if len(claims) == 0 {
		a.println(cli.InfoStyle.Render("Nenhum sinistro registrado."))
		return nil
	}

	names := report.NameIndex(a.session.Clients())
	rows := make([][]string, 0, len(claims))
	for _, c := range claims {
		holder := "-"
		if p, ok := a.session.FindPolicy(c.PolicyNumber); ok {
			holder = report.ClientLabel(names, p.ClientCPF)
		}
		rows = append(rows, []string{
			c.PolicyNumber.String(),
			holder,
			c.Date.String(),
			c.Description,
			string(c.Status),
		})
	}

	a.println(cli.FormatTitle(fmt.Sprintf("Sinistros (%d)", len(claims))))
	a.println(report.NewFormatter().Table(
		[]string{"Apólice", "Cliente", "Data", "Descrição", "Status"}, rows, 0))
	return nil
}

func runClaimsRegister(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()

	number, err := parsePolicyNumber(args[0])
	if err != nil {
		return err
	}
	policy, ok := a.session.FindPolicy(number)
	if !ok {
		return common.NewUserError(fmt.Sprintf("Apólice %d não encontrada.", number), session.ErrPolicyNotFound)
	}

	current, exists := a.session.ClaimFor(number)
	if exists {
		a.println(cli.FormatWarning(fmt.Sprintf("A apólice %d já tem um sinistro, que será substituído.", number)))
	} else {
		current.Date = model.NewDate(time.Now())
		current.Status = model.ClaimUnderReview
	}
	a.println(cli.SubtleStyle.Render(fmt.Sprintf("Vigência: %s a %s", policy.Start, policy.End)))

	claim := model.Claim{PolicyNumber: number}
	if claim.Date, err = a.prompter.DateField(ctx, "Data do sinistro", current.Date); err != nil {
		return err
	}
	if claim.Description, err = a.prompter.AskRequired(ctx, "Descrição", current.Description); err != nil {
		return err
	}

	statuses := model.ClaimStatuses()
	options := make([]string, 0, len(statuses))
	for _, s := range statuses {
		options = append(options, string(s))
	}
	status, err := a.prompter.Choose(ctx, "Status do sinistro", options, string(current.Status))
	if err != nil {
		return err
	}
	claim.Status = model.ClaimStatus(status)

	if _, err := a.session.RegisterClaim(ctx, claim); err != nil {
		return saveError("Não foi possível registrar o sinistro.", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Sinistro da apólice %d registrado.", number)))
	return nil
}
