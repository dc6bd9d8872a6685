// Package ui holds the terminal styles shared by the CLI commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	badgeTodo = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	badgeTBC  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	badgeDone = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func Title(s string) string   { return titleStyle.Render(s) }
func Muted(s string) string   { return mutedStyle.Render(s) }
func Accent(s string) string  { return accentStyle.Render(s) }
func Warn(s string) string    { return warnStyle.Render(s) }
func Success(s string) string { return successStyle.Render(s) }

// StatusBadge renders a follow-up status in its list color.
func StatusBadge(status string) string {
	switch status {
	case "todo":
		return badgeTodo.Render("To do")
	case "tbc":
		return badgeTBC.Render("To be checked")
	case "done":
		return badgeDone.Render("Done")
	default:
		return status
	}
}
