package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	muted    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	panel    lipgloss.Style
	header   lipgloss.Style

	accent lipgloss.Color
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		muted:    NewStyle(h),
		tab:      NewStyle(h).Padding(0, 1),
		tabOn:    NewBold("#FFFFFF").Background(lipgloss.Color(t)).Padding(0, 1),
		cursor:   NewBold(t),
		selected: NewStyle("#FFFFFF").Background(lipgloss.Color("#3C3C6E")),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		header:   NewBold(h).Underline(true),
		accent:   lipgloss.Color(t),
	}
}

// On renders s over a bg background.
func (p *Palette) On(s string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().Background(bg).Render(s)
}

// As renders s in fg.
func (p *Palette) As(s string, fg lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(fg).Render(s)
}

// level picks the style of a notification level.
func (p *Palette) level(l level) lipgloss.Style {
	switch l {
	case levelSuccess:
		return p.ok
	case levelWarning:
		return p.warn.Bold(true)
	case levelError:
		return p.err
	default:
		return p.cursor
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

var _ Painter = (*Palette)(nil)
