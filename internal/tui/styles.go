package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			MarginLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	qaStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	detailKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	// typeStyles color the node type badge per level
	typeStyles = map[string]lipgloss.Style{
		"root":       lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		"department": lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		"program":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		"project":    lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		"task":       lipgloss.NewStyle().Foreground(lipgloss.Color("147")),
		"atomic":     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)
