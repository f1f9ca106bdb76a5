package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	banner   lipgloss.Style
	cursor   lipgloss.Style
	checked  lipgloss.Style
	ghost    lipgloss.Style
	disabled lipgloss.Style
	hint     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		banner:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		checked:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		ghost:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true),
		disabled: lipgloss.NewStyle().Faint(true),
		hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
