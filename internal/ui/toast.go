package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastTTL is how long a notification stays on screen.
const toastTTL = 4 * time.Second

type level int

const (
	levelInfo level = iota
	levelSuccess
	levelWarning
	levelError
)

func (l level) String() string {
	switch l {
	case levelSuccess:
		return "success"
	case levelWarning:
		return "warning"
	case levelError:
		return "error"
	default:
		return "info"
	}
}

// toast is a transient notification.
type toast struct {
	level level
	text  string
}

func (t toast) View() string {
	if t.text == "" {
		return ""
	}
	icon := map[level]string{levelInfo: "•", levelSuccess: "✓", levelWarning: "!", levelError: "✗"}[t.level]
	return styles.level(t.level).Render(icon + " " + t.text)
}

// expireToast schedules the removal of the toast issued under token.
func expireToast(token uint64) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return Msg{kind: MsgToastExpired, key: keyToast, token: token}
	})
}
