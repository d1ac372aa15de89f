package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
	"github.com/Veraticus/seguros/internal/session"
)

func policiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"apolices"},
		Short:   "Manage insurance policies",
		Long: `Create, edit, cancel and inspect policies. Creating a policy for an
unknown CPF registers the client as well.`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List policies",
		Args:  cobra.NoArgs,
		RunE:  withApp(model.RoleUser, runPoliciesList),
	}
	list.Flags().String("cpf", "", "only policies of this client")
	list.Flags().String("status", "", "only policies with this status")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <number>",
		Short: "Show a policy with its coverage and claim",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(model.RoleUser, runPoliciesShow),
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a policy",
		Args:  cobra.NoArgs,
		RunE:  withApp(model.RoleAdmin, runPoliciesCreate),
	}
	create.Flags().String("cpf", "", "client CPF (prompted when omitted)")
	create.Flags().String("type", "", "coverage type: Automóvel, Residencial or Vida")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <number>",
		Short: "Edit a policy and its client",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(model.RoleAdmin, runPoliciesEdit),
	})

	cancel := &cobra.Command{
		Use:   "cancel <number>",
		Short: "Cancel a policy",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(model.RoleAdmin, runPoliciesCancel),
	}
	cancel.Flags().String("reason", "", "cancellation reason")
	cancel.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(cancel)

	return cmd
}

func runPoliciesList(cmd *cobra.Command, a *app, _ []string) error {
	cpfFilter, _ := cmd.Flags().GetString("cpf")
	statusFilter, _ := cmd.Flags().GetString("status")

	var policies []model.Policy
	if cpfFilter != "" {
		policies = a.session.PoliciesForClient(model.NormalizeCPF(cpfFilter))
	} else {
		policies = a.session.Policies()
	}

	if statusFilter != "" {
		filtered := policies[:0:0]
		for _, p := range policies {
			if string(p.Status) == statusFilter {
				filtered = append(filtered, p)
			}
		}
		policies = filtered
	}

	if len(policies) == 0 {
		a.println(cli.InfoStyle.Render("Nenhuma apólice encontrada."))
		return nil
	}

	a.println(cli.FormatTitle(fmt.Sprintf("Apólices (%d)", len(policies))))
	a.println(policyTable(a, policies))
	return nil
}

func policyTable(a *app, policies []model.Policy) string {
	names := report.NameIndex(a.session.Clients())
	rows := make([][]string, 0, len(policies))
	for _, p := range policies {
		rows = append(rows, []string{
			p.Number.String(),
			report.ClientLabel(names, p.ClientCPF),
			string(p.Type),
			string(p.Status),
			p.Start.String(),
			p.End.String(),
			report.FormatMoney(p.InsuredValue),
		})
	}
	return report.NewFormatter().Table(
		[]string{"Número", "Cliente", "Tipo", "Status", "Início", "Fim", "Valor Segurado"}, rows, 0, 6)
}

func runPoliciesShow(_ *cobra.Command, a *app, args []string) error {
	number, err := parsePolicyNumber(args[0])
	if err != nil {
		return err
	}
	policy, ok := a.session.FindPolicy(number)
	if !ok {
		return common.NewUserError(fmt.Sprintf("Apólice %d não encontrada.", number), session.ErrPolicyNotFound)
	}

	names := report.NameIndex(a.session.Clients())
	details := [][2]string{
		{"Cliente", report.ClientLabel(names, policy.ClientCPF)},
		{"CPF", policy.ClientCPF.Format()},
		{"Tipo", string(policy.Type)},
		{"Status", string(policy.Status)},
		{"Início", policy.Start.String()},
		{"Fim", policy.End.String()},
		{"Valor segurado", report.FormatMoney(policy.InsuredValue)},
	}
	if policy.Cancelled() {
		details = append(details,
			[2]string{"Cancelada em", policy.CancelledOn.String()},
			[2]string{"Motivo", policy.CancelReason})
	}
	for _, f := range policy.CoverageFields() {
		details = append(details, [2]string{f.Label, f.Value})
	}
	if claim, ok := a.session.ClaimFor(number); ok {
		details = append(details,
			[2]string{"Sinistro", claim.Date.String() + " - " + string(claim.Status)},
			[2]string{"Descrição", claim.Description})
	}

	a.println(cli.RenderDetails(fmt.Sprintf("Apólice %d", number), details))
	return nil
}

func runPoliciesCreate(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	cpfFlag, _ := cmd.Flags().GetString("cpf")
	typeFlag, _ := cmd.Flags().GetString("type")

	client, err := askPolicyClient(ctx, a, cpfFlag)
	if err != nil {
		return err
	}

	var coverageType model.CoverageType
	if typeFlag != "" {
		if coverageType, err = model.ParseCoverageType(typeFlag); err != nil {
			return common.NewUserError(fmt.Sprintf("Tipo de seguro inválido: %s", typeFlag), err)
		}
	} else if coverageType, err = askCoverageType(ctx, a, ""); err != nil {
		return err
	}

	today := time.Now()
	defaults := model.Policy{
		Status: model.StatusActive,
		Start:  model.NewDate(today),
		End:    model.NewDate(today.AddDate(1, 0, 0)),
	}
	in, err := askPolicyInput(ctx, a, client, coverageType, defaults)
	if err != nil {
		return err
	}

	policy, err := a.session.CreatePolicy(ctx, in)
	if err != nil {
		return saveError("Não foi possível criar a apólice.", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Apólice %d criada para %s.", policy.Number, client.Name)))
	return nil
}

func runPoliciesEdit(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()

	number, err := parsePolicyNumber(args[0])
	if err != nil {
		return err
	}
	current, ok := a.session.FindPolicy(number)
	if !ok {
		return common.NewUserError(fmt.Sprintf("Apólice %d não encontrada.", number), session.ErrPolicyNotFound)
	}
	if current.Cancelled() {
		return common.NewUserError(fmt.Sprintf("A apólice %d está cancelada e não pode ser editada.", number), session.ErrPolicyCancelled)
	}

	client, ok := a.session.FindClient(current.ClientCPF)
	if !ok {
		client = model.Client{CPF: current.ClientCPF.Normalize()}
	}
	if client, err = a.prompter.ClientForm(ctx, client); err != nil {
		return err
	}

	coverageType, err := askCoverageType(ctx, a, current.Type)
	if err != nil {
		return err
	}

	in, err := askPolicyInput(ctx, a, client, coverageType, current)
	if err != nil {
		return err
	}

	if _, err := a.session.UpdatePolicy(ctx, number, in); err != nil {
		return saveError("Não foi possível atualizar a apólice.", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Apólice %d atualizada.", number)))
	return nil
}

func runPoliciesCancel(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	reason, _ := cmd.Flags().GetString("reason")
	yes, _ := cmd.Flags().GetBool("yes")

	number, err := parsePolicyNumber(args[0])
	if err != nil {
		return err
	}
	if _, ok := a.session.FindPolicy(number); !ok {
		return common.NewUserError(fmt.Sprintf("Apólice %d não encontrada.", number), session.ErrPolicyNotFound)
	}

	if !yes {
		confirmed, err := a.prompter.Confirm(ctx, fmt.Sprintf("Cancelar a apólice %d?", number), false)
		if err != nil {
			return err
		}
		if !confirmed {
			a.println(cli.InfoStyle.Render("Cancelamento abortado."))
			return nil
		}
	}

	policy, err := a.session.CancelPolicy(ctx, number, reason)
	if err != nil {
		if errors.Is(err, session.ErrPolicyCancelled) {
			return common.NewUserError(fmt.Sprintf("A apólice %d já está cancelada.", number), err)
		}
		return saveError("Não foi possível cancelar a apólice.", err)
	}

	a.println(cli.FormatSuccess(fmt.Sprintf("Apólice %d cancelada em %s.", number, policy.CancelledOn)))
	return nil
}

// askPolicyClient finds the client for a new policy, registering or
// refreshing their data through the client form.
func askPolicyClient(ctx context.Context, a *app, cpfFlag string) (model.Client, error) {
	raw := cpfFlag
	if raw == "" {
		var err error
		raw, err = a.prompter.AskValid(ctx, "CPF do cliente", "", func(s string) error {
			if !model.NormalizeCPF(s).Valid() {
				return fmt.Errorf("CPF deve ter %d dígitos", model.CPFLength)
			}
			return nil
		})
		if err != nil {
			return model.Client{}, err
		}
	}
	cpf := model.NormalizeCPF(raw)
	if !cpf.Valid() {
		return model.Client{}, common.NewUserError(fmt.Sprintf("CPF inválido: %s", raw), model.ErrValidation)
	}

	existing, ok := a.session.FindClient(cpf)
	if !ok {
		a.println(cli.InfoStyle.Render("Cliente novo, informe os dados cadastrais."))
		return a.prompter.ClientForm(ctx, model.Client{CPF: cpf})
	}

	a.println(cli.InfoStyle.Render(fmt.Sprintf("Cliente encontrado: %s", existing.Name)))
	update, err := a.prompter.Confirm(ctx, "Atualizar dados do cliente?", false)
	if err != nil || !update {
		return existing, err
	}
	return a.prompter.ClientForm(ctx, existing)
}

func askCoverageType(ctx context.Context, a *app, def model.CoverageType) (model.CoverageType, error) {
	types := model.CoverageTypes()
	options := make([]string, 0, len(types))
	for _, t := range types {
		options = append(options, string(t))
	}
	choice, err := a.prompter.Choose(ctx, "Tipo de seguro", options, string(def))
	if err != nil {
		return "", err
	}
	return model.ParseCoverageType(choice)
}

// askPolicyInput fills in the coverage and terms of a policy, offering the
// values of current as defaults.
func askPolicyInput(ctx context.Context, a *app, client model.Client, t model.CoverageType, current model.Policy) (session.PolicyInput, error) {
	coverage, err := a.prompter.CoverageForm(ctx, t, current.Coverage)
	if err != nil {
		return session.PolicyInput{}, err
	}

	start, err := a.prompter.DateField(ctx, "Início da vigência", current.Start)
	if err != nil {
		return session.PolicyInput{}, err
	}
	end, err := a.prompter.DateField(ctx, "Fim da vigência", current.End)
	if err != nil {
		return session.PolicyInput{}, err
	}

	def := ""
	if current.InsuredValue.IsPositive() {
		def = current.InsuredValue.StringFixed(2)
	}
	raw, err := a.prompter.AskValid(ctx, "Valor segurado (R$)", def, func(s string) error {
		_, err := model.ParseAmount(s)
		return err
	})
	if err != nil {
		return session.PolicyInput{}, err
	}
	value, err := model.ParseAmount(raw)
	if err != nil {
		return session.PolicyInput{}, err
	}

	statuses := []string{string(model.StatusActive), string(model.StatusInactive), string(model.StatusPending)}
	status, err := a.prompter.Choose(ctx, "Status", statuses, string(current.Status))
	if err != nil {
		return session.PolicyInput{}, err
	}

	return session.PolicyInput{
		Client:       client,
		Type:         t,
		Coverage:     coverage,
		InsuredValue: value,
		Status:       model.PolicyStatus(status),
		Start:        start,
		End:          end,
	}, nil
}

// saveError explains a failed mutation. Validation problems are shown as
// they are; write failures mean memory and disk may now differ.
func saveError(message string, err error) error {
	if errors.Is(err, model.ErrValidation) {
		return common.NewUserError(message, err)
	}
	return common.NewUserError(message+" Os dados podem não ter sido gravados.", err)
}
