package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/report"
	"github.com/Veraticus/seguros/internal/session"
)

// reportKinds maps report names to their renderers, in display order.
var reportKinds = []struct {
	name   string
	render func(f *report.Formatter, s *session.Session) string
}{
	{"value", func(f *report.Formatter, s *session.Session) string {
		return f.FormatValueByClient(report.ValueByClient(s.Clients(), s.Policies()))
	}},
	{"types", func(f *report.Formatter, s *session.Session) string {
		return f.FormatCountByType(report.CountByType(s.Policies()))
	}},
	{"claims", func(f *report.Formatter, s *session.Session) string {
		return f.FormatClaimsByStatus(report.ClaimsByStatus(s.Claims()))
	}},
	{"ranking", func(f *report.Formatter, s *session.Session) string {
		return f.FormatRanking(report.ClientRanking(s.Clients(), s.Policies()))
	}},
}

func reportsCmd() *cobra.Command {
	names := make([]string, 0, len(reportKinds))
	for _, k := range reportKinds {
		names = append(names, k.name)
	}

	return &cobra.Command{
		Use:     "reports [" + strings.Join(names, "|") + "]",
		Aliases: []string{"relatorios"},
		Short:   "Show summary reports",
		Long: `Show the administrator reports:

  value    insured value per client
  types    policies per coverage type
  claims   claims per status
  ranking  clients by number of policies

Without an argument every report is shown.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: names,
		RunE:      withApp(model.RoleAdmin, runReports),
	}
}

func runReports(_ *cobra.Command, a *app, args []string) error {
	formatter := report.NewFormatter()

	if len(args) == 1 {
		for _, k := range reportKinds {
			if k.name == args[0] {
				a.println(k.render(formatter, a.session))
				return nil
			}
		}
		return common.NewUserError(fmt.Sprintf("Relatório desconhecido: %s", args[0]), nil)
	}

	a.println(cli.FormatTitle(cli.ChartIcon + " Relatórios"))
	for _, k := range reportKinds {
		a.println(k.render(formatter, a.session))
		a.println("")
	}
	return nil
}
