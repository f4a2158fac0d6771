package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/focuscycle/internal/session"
	"github.com/dori/focuscycle/internal/ui/theme"
)

// ConfirmDialog asks whether to leave a finished stage
type ConfirmDialog struct {
	stage    session.Stage
	next     session.Stage
	bindings []key.Binding
}

// NewConfirmDialog creates the dialog for a finished stage
func NewConfirmDialog(stage, next session.Stage, bindings []key.Binding) ConfirmDialog {
	return ConfirmDialog{stage: stage, next: next, bindings: bindings}
}

// View renders the dialog box
func (d ConfirmDialog) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Warning).
		Render(d.stage.String() + " ended")

	question := lipgloss.NewStyle().
		Foreground(t.Foreground).
		MarginTop(1).
		Render("Move to the next stage? (" + d.next.String() + ")")

	var hints []string
	for _, b := range d.bindings {
		h := b.Help()
		hints = append(hints, styles.HelpKey.Render(h.Key)+styles.HelpDesc.Render(" "+h.Desc))
	}
	footer := lipgloss.NewStyle().
		MarginTop(1).
		Render(strings.Join(hints, styles.HelpSeparator.Render(" │ ")))

	return styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Center, title, question, footer))
}
