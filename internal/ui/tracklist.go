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

// trackList is a scrolling, multi-select track table. Each instance owns its own selection.
type trackList struct {
	tracks []models.Track
	sel    *selection.Model[models.TrackID]
	cursor int
	offset int
	height int
	empty  string
	album  bool // show the album column
}

func newTrackList(empty string) *trackList {
	return &trackList{sel: selection.New[models.TrackID](nil), height: 10, empty: empty, album: true}
}

// SetTracks replaces the rows; the selection is cleared and the cursor returns to the top.
func (l *trackList) SetTracks(tracks []models.Track) {
	l.tracks = tracks
	l.sel.Load(models.TrackIDList(tracks))
	l.cursor, l.offset = 0, 0
}

func (l *trackList) Tracks() []models.Track {
	return l.tracks
}

func (l *trackList) Selection() *selection.Model[models.TrackID] {
	return l.sel
}

// SelectedIDs returns the selection in table order.
func (l *trackList) SelectedIDs() []models.TrackID {
	return l.sel.Ordered()
}

func (l *trackList) Len() int {
	return len(l.tracks)
}

func (l *trackList) SetHeight(h int) {
	l.height = max(h, 1)
	l.scroll()
}

// Current returns the row under the cursor.
func (l *trackList) Current() (models.Track, bool) {
	if l.cursor < 0 || l.cursor >= len(l.tracks) {
		return models.Track{}, false
	}
	return l.tracks[l.cursor], true
}

// click applies a selection click on row i.
func (l *trackList) click(mods selection.Modifiers, i int) bool {
	if i < 0 || i >= len(l.tracks) {
		return false
	}
	l.cursor = i
	l.scroll()
	return l.sel.Click(mods, l.tracks[i].ID, i)
}

func (l *trackList) move(delta int) {
	if len(l.tracks) == 0 {
		return
	}
	l.cursor = min(max(l.cursor+delta, 0), len(l.tracks)-1)
	l.scroll()
}

func (l *trackList) scroll() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	l.offset = max(0, min(l.offset, max(len(l.tracks)-l.height, 0)))
}

// HandleKey applies navigation and selection keys and reports whether msg was consumed.
func (l *trackList) HandleKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, keys.rangeUp):
		if l.cursor > 0 {
			l.click(selection.Shift, l.cursor-1)
		}
	case key.Matches(msg, keys.rangeDown):
		if l.cursor < len(l.tracks)-1 {
			l.click(selection.Shift, l.cursor+1)
		}
	case key.Matches(msg, keys.up):
		l.move(-1)
	case key.Matches(msg, keys.down):
		l.move(1)
	case key.Matches(msg, keys.pageUp):
		l.move(-l.height)
	case key.Matches(msg, keys.pageDown):
		l.move(l.height)
	case msg.String() == "home" || msg.String() == "g":
		l.move(-len(l.tracks))
	case msg.String() == "end" || msg.String() == "G":
		l.move(len(l.tracks))
	case key.Matches(msg, keys.pick):
		l.click(selection.Plain, l.cursor)
	case key.Matches(msg, keys.toggle):
		l.click(selection.Ctrl, l.cursor)
	case key.Matches(msg, keys.clear):
		l.sel.Clear()
	default:
		return false
	}
	return true
}

// HandleMouse maps a mouse event whose Y is relative to the first data row.
func (l *trackList) HandleMouse(msg tea.MouseMsg) bool {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		l.move(-3)
		return true
	case msg.Button == tea.MouseButtonWheelDown:
		l.move(3)
		return true
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if msg.Y < 0 || msg.Y >= l.height {
			return false
		}
		return l.click(selection.Modifiers{Ctrl: msg.Ctrl || msg.Alt, Shift: msg.Shift}, l.offset+msg.Y)
	}
	return false
}

// headerLines is how many lines View prints above the first data row.
const headerLines = 1

func (l *trackList) View(width int) string {
	if len(l.tracks) == 0 {
		return styles.muted.Render(l.empty)
	}

	width = max(width, 40)
	dur, nr := 7, 4
	rest := width - dur - nr - 4
	cols := []int{rest * 4 / 10, rest * 3 / 10, rest * 3 / 10}
	if !l.album {
		cols = []int{rest * 6 / 10, rest * 4 / 10, 0}
	}

	var b strings.Builder
	b.WriteString(styles.header.Render(row("  ", cell("#", nr), cell("Title", cols[0]), cell("Artist", cols[1]), cell("Album", cols[2]), cell("Time", dur))))

	end := min(l.offset+l.height, len(l.tracks))
	for i := l.offset; i < end; i++ {
		t := l.tracks[i]
		mark := "  "
		if l.sel.Selected(t.ID) {
			mark = "● "
		}
		nrText := ""
		if t.TrackNr > 0 {
			nrText = fmt.Sprint(t.TrackNr)
		}
		line := row(mark, cell(nrText, nr), cell(t.DisplayTitle(), cols[0]), cell(t.DisplayArtist(), cols[1]), cell(t.Album, cols[2]), cell(shared.FormatDuration(t.Length()), dur))

		switch {
		case i == l.cursor && l.sel.Selected(t.ID):
			line = styles.selected.Bold(true).Render(line)
		case i == l.cursor:
			line = styles.cursor.Render(line)
		case l.sel.Selected(t.ID):
			line = styles.selected.Render(line)
		}
		b.WriteString("\n" + line)
	}

	if len(l.tracks) > l.height {
		b.WriteString("\n" + styles.muted.Render(fmt.Sprintf("%d-%d of %d", l.offset+1, end, len(l.tracks))))
	}
	return b.String()
}

// Status is the "n selected" line shown under tables.
func (l *trackList) Status() string {
	if l.sel.Empty() {
		return styles.muted.Render(fmt.Sprintf("%d tracks", len(l.tracks)))
	}
	return styles.ok.Render(fmt.Sprintf("%d of %d selected", l.sel.Len(), len(l.tracks)))
}

func row(mark string, cells ...string) string {
	return mark + strings.Join(cells, "")
}

// cell pads or truncates s to exactly w columns; w of 0 drops the cell.
func cell(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Width(w).MaxWidth(w).Render(shared.Truncate(s, w-1))
}
