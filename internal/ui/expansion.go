package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/selection"
	"github.com/desertthunder/podx/internal/shared"
)

// cardWidth is the width of one album card including its gutter.
const cardWidth = 26

// gridColumns is how many album cards fit in width.
func gridColumns(width int) int {
	return max(width/cardWidth, 1)
}

// gridRow is the row of the card at index in a grid of cols columns.
func gridRow(index, cols int) int {
	return index / max(cols, 1)
}

// expandAction is what selecting an album card does to the inline expansion.
type expandAction int

const (
	// expandOpen inserts a new panel after the selected card's row.
	expandOpen expandAction = iota
	// expandReplace swaps the panel's contents in place; the card is in the expanded card's row.
	expandReplace
	// expandCollapseOpen closes the panel of another row before opening one under this row.
	expandCollapseOpen
	// expandClose toggles the already expanded album closed.
	expandClose
)

// planExpansion decides how selecting the card at index (album key) changes the current expansion.
func planExpansion(current *expansion, cols, index int, key string) expandAction {
	switch {
	case current == nil:
		return expandOpen
	case current.album.Key() == key:
		return expandClose
	case gridRow(current.index, cols) == gridRow(index, cols):
		return expandReplace
	default:
		return expandCollapseOpen
	}
}

// expansionRows is the height of the two-column track listing: ceil(n/2).
func expansionRows(n int) int {
	return (n + 1) / 2
}

// expansion is an album opened inline under its grid row. It owns its own selection.
type expansion struct {
	album  models.Album
	index  int
	tracks []models.Track
	sel    *selection.Model[models.TrackID]
	cursor int
}

func newExpansion(album models.Album, index int, tracks []models.Track) *expansion {
	return &expansion{
		album:  album,
		index:  index,
		tracks: tracks,
		sel:    selection.New(models.TrackIDList(tracks)),
	}
}

// cell returns the (row, column) of track i. Tracks flow top to bottom, then into the second column.
func (e *expansion) cell(i int) (row, col int) {
	rows := max(expansionRows(len(e.tracks)), 1)
	return i % rows, i / rows
}

func (e *expansion) click(mods selection.Modifiers, i int) bool {
	if i < 0 || i >= len(e.tracks) {
		return false
	}
	e.cursor = i
	return e.sel.Click(mods, e.tracks[i].ID, i)
}

func (e *expansion) move(delta int) {
	if len(e.tracks) == 0 {
		return
	}
	next := e.cursor + delta
	if next < 0 || next >= len(e.tracks) {
		return
	}
	e.cursor = next
}

// HandleKey moves through the columns (left/right jump a column) and applies selection keys.
func (e *expansion) HandleKey(msg tea.KeyMsg) bool {
	rows := max(expansionRows(len(e.tracks)), 1)
	switch {
	case key.Matches(msg, keys.rangeUp):
		if e.cursor > 0 {
			e.click(selection.Shift, e.cursor-1)
		}
	case key.Matches(msg, keys.rangeDown):
		if e.cursor < len(e.tracks)-1 {
			e.click(selection.Shift, e.cursor+1)
		}
	case key.Matches(msg, keys.up):
		e.move(-1)
	case key.Matches(msg, keys.down):
		e.move(1)
	case key.Matches(msg, keys.left):
		e.move(-rows)
	case key.Matches(msg, keys.right):
		e.move(rows)
	case key.Matches(msg, keys.pick):
		e.click(selection.Plain, e.cursor)
	case key.Matches(msg, keys.toggle):
		e.click(selection.Ctrl, e.cursor)
	case key.Matches(msg, keys.selectAll):
		e.sel.SelectAll()
	case key.Matches(msg, keys.clear):
		e.sel.Clear()
	default:
		return false
	}
	return true
}

// View renders the panel: album header, then two columns of "nr title duration".
func (e *expansion) View(width int, focused bool) string {
	rows := expansionRows(len(e.tracks))
	colWidth := max((width-6)/2, 20)

	lines := make([]string, rows)
	for i, t := range e.tracks {
		r, c := e.cell(i)
		nr := i + 1
		if t.TrackNr > 0 {
			nr = t.TrackNr
		}
		dur := shared.FormatDuration(t.Length())
		text := fmt.Sprintf("%3d  %s", nr, shared.Truncate(t.DisplayTitle(), colWidth-len(dur)-8))
		text = lipgloss.NewStyle().Width(colWidth-len(dur)-1).Render(text) + " " + dur

		mark := "  "
		if e.sel.Selected(t.ID) {
			mark = "● "
		}
		text = mark + text
		switch {
		case focused && i == e.cursor:
			text = styles.cursor.Render(text)
		case e.sel.Selected(t.ID):
			text = styles.selected.Render(text)
		}
		if c == 0 {
			lines[r] = lipgloss.NewStyle().Width(colWidth + 2).Render(text)
		} else {
			lines[r] += "  " + text
		}
	}

	title := styles.title.UnsetMarginBottom().Render(e.album.Title())
	meta := styles.muted.Render(fmt.Sprintf("%s • %d %s", e.album.Artist, len(e.tracks), pluralize(len(e.tracks), "track", "tracks")))
	if e.album.Year > 0 {
		meta += styles.muted.Render(fmt.Sprintf(" • %d", e.album.Year))
	}
	status := ""
	if !e.sel.Empty() {
		status = "\n" + styles.ok.Render(fmt.Sprintf("%d selected", e.sel.Len()))
	}

	return styles.panel.Width(max(width-2, 20)).Render(title + "\n" + meta + "\n\n" + strings.Join(lines, "\n") + status)
}
