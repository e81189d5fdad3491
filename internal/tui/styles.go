package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

var (
	colorStars = lipgloss.Color("220") // yellow
	colorForks = lipgloss.Color("33")  // blue
	colorPull  = lipgloss.Color("46")  // green
	colorIssue = lipgloss.Color("208") // orange

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	repoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	starsStyle = lipgloss.NewStyle().Foreground(colorStars)
	forksStyle = lipgloss.NewStyle().Foreground(colorForks)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func facetStyle(facet string) lipgloss.Style {
	switch facet {
	case monitor.FacetPulls:
		return lipgloss.NewStyle().Bold(true).Foreground(colorPull)
	case monitor.FacetIssues:
		return lipgloss.NewStyle().Bold(true).Foreground(colorIssue)
	default:
		return itemStyle
	}
}
