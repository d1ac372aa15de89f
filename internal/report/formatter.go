package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

const (
	barWidth        = 30
	rankingChartTop = 10
	emptyMessage    = "Não há dados para exibir."
)

// Formatter renders reports as styled tables followed by a bar chart.
type Formatter struct {
	styles *Styles
}

// NewFormatter creates a Formatter with the default styles.
func NewFormatter() *Formatter {
	return &Formatter{styles: NewStyles()}
}

// FormatValueByClient renders the insured value per client.
func (f *Formatter) FormatValueByClient(rows []ClientValue) string {
	title := f.styles.Title.Render("Valor Segurado por Cliente")
	if len(rows) == 0 {
		return title + "\n" + f.styles.Empty.Render(emptyMessage)
	}

	cells := make([][]string, 0, len(rows))
	bars := make([]bar, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, FormatMoney(r.Total)})
		bars = append(bars, bar{label: r.Name, value: r.Total, text: FormatMoney(r.Total)})
	}

	return strings.Join([]string{
		title,
		f.Table([]string{"Cliente", "Valor Total Segurado"}, cells, 1),
		f.chart("Valor Total Segurado por Cliente", bars),
	}, "\n")
}

// FormatCountByType renders the policy count per coverage type.
func (f *Formatter) FormatCountByType(rows []TypeCount) string {
	title := f.styles.Title.Render("Apólices por Tipo")
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if total == 0 {
		return title + "\n" + f.styles.Empty.Render(emptyMessage)
	}

	cells := make([][]string, 0, len(rows))
	bars := make([]bar, 0, len(rows))
	for _, r := range rows {
		share := float64(r.Count) / float64(total) * 100
		cells = append(cells, []string{string(r.Type), strconv.Itoa(r.Count)})
		bars = append(bars, bar{
			label: string(r.Type),
			value: decimal.NewFromInt(int64(r.Count)),
			text:  fmt.Sprintf("%.1f%%", share),
		})
	}

	return strings.Join([]string{
		title,
		f.Table([]string{"Tipo de Seguro", "Quantidade"}, cells, 1),
		f.chart("Distribuição de Apólices por Tipo", bars),
	}, "\n")
}

// FormatClaimsByStatus renders claim counts and percentages.
func (f *Formatter) FormatClaimsByStatus(summary ClaimSummary) string {
	title := f.styles.Title.Render("Sinistros")
	if summary.Total == 0 {
		return title + "\n" + f.styles.Empty.Render(emptyMessage)
	}

	cells := make([][]string, 0, len(summary.Statuses))
	bars := make([]bar, 0, len(summary.Statuses))
	for _, s := range summary.Statuses {
		count := strconv.Itoa(s.Count)
		cells = append(cells, []string{string(s.Status), count, fmt.Sprintf("%.1f%%", s.Percent)})
		bars = append(bars, bar{label: string(s.Status), value: decimal.NewFromInt(int64(s.Count)), text: count})
	}

	footer := f.styles.Subtle.Render(fmt.Sprintf("Total de sinistros: %d", summary.Total))
	return strings.Join([]string{
		title,
		f.Table([]string{"Status", "Quantidade", "Percentual"}, cells, 1, 2),
		footer,
		f.chart("Quantidade de Sinistros por Status", bars),
	}, "\n")
}

// FormatRanking renders the client ranking. The chart shows the top ten.
func (f *Formatter) FormatRanking(rows []RankEntry) string {
	title := f.styles.Title.Render("Ranking de Clientes")
	if len(rows) == 0 {
		return title + "\n" + f.styles.Empty.Render(emptyMessage)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{fmt.Sprintf("%dº", r.Position), r.Name, strconv.Itoa(r.Policies)})
	}

	top := rows
	if len(top) > rankingChartTop {
		top = top[:rankingChartTop]
	}
	bars := make([]bar, 0, len(top))
	for _, r := range top {
		bars = append(bars, bar{label: r.Name, value: decimal.NewFromInt(int64(r.Policies)), text: strconv.Itoa(r.Policies)})
	}

	return strings.Join([]string{
		title,
		f.Table([]string{"Posição", "Cliente", "Quantidade de Apólices"}, cells, 2),
		f.chart(fmt.Sprintf("Top %d Clientes por Número de Apólices", len(top)), bars),
	}, "\n")
}

// Table renders a bordered table. Columns listed in numeric are right aligned.
func (f *Formatter) Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		right[col] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.styles.Header
			case right[col]:
				return f.styles.Number
			default:
				return f.styles.Cell
			}
		})
	return t.String()
}

type bar struct {
	value decimal.Decimal
	label string
	text  string
}

// chart renders one horizontal bar per entry, scaled to the largest value.
func (f *Formatter) chart(title string, bars []bar) string {
	labelWidth := 0
	highest := decimal.Zero
	for _, b := range bars {
		if w := lipgloss.Width(b.label); w > labelWidth {
			labelWidth = w
		}
		if b.value.GreaterThan(highest) {
			highest = b.value
		}
	}

	lines := []string{f.styles.Subtitle.Render(title)}
	for _, b := range bars {
		filled := 0
		if highest.IsPositive() {
			filled = int(b.value.Div(highest).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
		}
		if filled == 0 && b.value.IsPositive() {
			filled = 1
		}
		label := b.label + strings.Repeat(" ", labelWidth-lipgloss.Width(b.label))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			label,
			f.styles.Bar.Render(strings.Repeat("█", filled))+f.styles.Subtle.Render(strings.Repeat("░", barWidth-filled)),
			b.text))
	}
	return strings.Join(lines, "\n")
}
