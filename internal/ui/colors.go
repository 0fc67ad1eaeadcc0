package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/plmigrate/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette holds the named [lipgloss.Style] values shared by the views and the report.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	box   lipgloss.Style
}

// NewPalette builds a [Palette] from accent, success, error, warning and muted colors.
// The accent colors titles and the summary box border.
func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title: NewBold(accent).MarginBottom(1),
		ok:    NewBold(success),
		err:   NewBold(failure),
		warn:  NewStyle(warning),
		help:  NewEm(muted),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accent)).
			Padding(0, 1),
	}
}

// outcome picks the style for a playlist outcome line.
func (p *Palette) outcome(status models.OutcomeStatus) lipgloss.Style {
	switch status {
	case models.OutcomeMigrated:
		return p.ok
	case models.OutcomeFailed, models.OutcomeDropped:
		return p.err
	default:
		return p.warn
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
