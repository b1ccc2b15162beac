package tui

import "github.com/charmbracelet/lipgloss"

// Style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	SectorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	CursorStyle = lipgloss.NewStyle().Reverse(true)
)
