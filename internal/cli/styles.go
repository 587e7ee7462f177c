package cli

import (
	"strings"

	"github.com/centraunit/scopetree"
	"github.com/charmbracelet/lipgloss"
)

var (
	componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	groupStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	serviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	eventStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	cancelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

// styledLabel colors a scope label produced by scopetree.Label.
func styledLabel(scope *scopetree.Scope, label string) string {
	name, rest, _ := strings.Cut(label, " ")
	style := groupStyle
	if _, ok := scope.Component(); ok {
		style = componentStyle
	}
	if rest == "" {
		return style.Render(name)
	}
	return style.Render(name) + " " + serviceStyle.Render(rest)
}
