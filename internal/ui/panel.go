package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// panel is one view controller hosted by the root [Model].
//
// Update receives key and mouse messages only while the panel is active, and every [Msg]
// that survived the stale check. Mouse coordinates are relative to the panel's top-left corner.
type panel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	// Capturing reports a focused text input or pending confirmation; global keys are not applied.
	Capturing() bool
	Help() []key.Binding
}

var (
	_ panel = (*devicePanel)(nil)
	_ panel = (*browserPanel)(nil)
	_ panel = (*libraryPanel)(nil)
	_ panel = (*uploadPanel)(nil)
)

// confirmation is a pending y/n question.
type confirmation struct {
	prompt string
	onYes  func() tea.Cmd
}

func (c *confirmation) View() string {
	if c == nil {
		return ""
	}
	return styles.warn.Bold(true).Render(c.prompt + " (y/n)")
}

// handleConfirm resolves c with a key press. It returns the command to run and whether c is settled.
func handleConfirm(c *confirmation, msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.yes):
		return c.onYes(), true
	case key.Matches(msg, keys.no):
		return nil, true
	}
	return nil, false
}
