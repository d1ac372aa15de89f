package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/seguros/internal/cli"
)

// Styles holds the lipgloss styles used to render reports.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Subtle   lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Number   lipgloss.Style
	Bar      lipgloss.Style
	Border   lipgloss.Style
	Empty    lipgloss.Style
}

// NewStyles returns the default report styles.
func NewStyles() *Styles {
	return &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Subtle:   cli.SubtleStyle,
		Header:   lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor).Padding(0, 1),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
		Number:   lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		Bar:      lipgloss.NewStyle().Foreground(cli.InfoColor),
		Border:   lipgloss.NewStyle().Foreground(cli.SubtleColor),
		Empty:    cli.WarningStyle,
	}
}
