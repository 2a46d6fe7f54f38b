package ui

import (
	"errors"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

func TestPlanExpansion(t *testing.T) {
	first := models.Album{Album: "First", Artist: "Band"}
	open := newExpansion(first, 1, nil)

	tests := []struct {
		name    string
		current *expansion
		index   int
		key     string
		want    expandAction
	}{
		{"nothing open", nil, 0, first.Key(), expandOpen},
		{"same album closes", open, 1, first.Key(), expandClose},
		{"same row replaces", open, 3, "other", expandReplace},
		{"other row collapses then opens", open, 4, "other", expandCollapseOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := planExpansion(tt.current, 4, tt.index, tt.key); got != tt.want {
				t.Errorf("planExpansion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpansionLayout(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		for n, want := range map[int]int{0: 0, 1: 1, 2: 1, 5: 3, 12: 6} {
			if got := expansionRows(n); got != want {
				t.Errorf("expansionRows(%d) = %d, want %d", n, got, want)
			}
		}
	})

	t.Run("tracks fill the first column first", func(t *testing.T) {
		e := newExpansion(models.Album{Album: "A"}, 0, make([]models.Track, 5))
		cells := [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}}
		for i, want := range cells {
			r, c := e.cell(i)
			if r != want[0] || c != want[1] {
				t.Errorf("cell(%d) = (%d, %d), want %v", i, r, c, want)
			}
		}
	})

	t.Run("grid", func(t *testing.T) {
		if got := gridColumns(cardWidth*3 + 5); got != 3 {
			t.Errorf("gridColumns() = %d, want 3", got)
		}
		if got := gridColumns(10); got != 1 {
			t.Errorf("gridColumns() = %d, want at least 1", got)
		}
		if got := gridRow(7, 3); got != 2 {
			t.Errorf("gridRow(7, 3) = %d, want 2", got)
		}
	})
}

func TestExpansion_Selection(t *testing.T) {
	tracks := []models.Track{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	e := newExpansion(models.Album{Album: "A"}, 0, tracks)

	e.HandleKey(keyMsg(" "))
	e.HandleKey(keyMsg("J"))
	if got := e.sel.Ordered(); !slices.Equal(got, []models.TrackID{1, 2}) {
		t.Errorf("selected = %v", got)
	}

	e.HandleKey(keyMsg("l"))
	if e.cursor != 3 {
		t.Errorf("right should jump one column, cursor = %d", e.cursor)
	}
	e.HandleKey(keyMsg("x"))
	if got := e.sel.Ordered(); !slices.Equal(got, []models.TrackID{1, 2, 4}) {
		t.Errorf("selected = %v", got)
	}
}

func TestTrackList(t *testing.T) {
	tracks := []models.Track{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}, {ID: 50}}

	t.Run("keyboard range", func(t *testing.T) {
		l := newTrackList("")
		l.SetTracks(tracks)
		l.HandleKey(keyMsg("j"))
		l.HandleKey(keyMsg(" "))
		l.HandleKey(keyMsg("J"))
		l.HandleKey(keyMsg("J"))
		if got := l.SelectedIDs(); !slices.Equal(got, []models.TrackID{20, 30, 40}) {
			t.Errorf("selected = %v", got)
		}
		l.HandleKey(keyMsg("ctrl+l"))
		if !l.Selection().Empty() {
			t.Error("clear should empty the selection")
		}
	})

	t.Run("mouse clicks", func(t *testing.T) {
		l := newTrackList("")
		l.SetTracks(tracks)
		l.HandleMouse(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress, Y: 1})
		l.HandleMouse(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress, Y: 3, Shift: true})
		if got := l.SelectedIDs(); !slices.Equal(got, []models.TrackID{20, 30, 40}) {
			t.Errorf("shift-click selected = %v", got)
		}

		l.HandleMouse(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress, Y: 2, Ctrl: true})
		if got := l.SelectedIDs(); !slices.Equal(got, []models.TrackID{20, 40}) {
			t.Errorf("ctrl-click selected = %v", got)
		}
		if l.sel.Anchor() != 2 {
			t.Errorf("anchor = %d, want 2", l.sel.Anchor())
		}

		if l.HandleMouse(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress, Y: 40}) {
			t.Error("click below the rows should be ignored")
		}
	})

	t.Run("reload clears selection", func(t *testing.T) {
		l := newTrackList("")
		l.SetTracks(tracks)
		l.Selection().SelectAll()
		l.SetTracks(tracks[:2])
		if !l.Selection().Empty() || l.cursor != 0 {
			t.Error("SetTracks should reset selection and cursor")
		}
	})
}

func TestFilterTracks(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, Title: "Blue Monday", Artist: "New Order"},
		{ID: 2, Title: "Ceremony", Artist: "New Order", Album: "Substance"},
		{ID: 3, Title: "Atmosphere", Artist: "Joy Division"},
	}

	tests := []struct {
		query string
		want  []models.TrackID
	}{
		{"", []models.TrackID{1, 2, 3}},
		{"new order", []models.TrackID{1, 2}},
		{"SUBSTANCE", []models.TrackID{2}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := models.TrackIDList(filterTracks(tracks, tt.query))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("filterTracks(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDeviceItems(t *testing.T) {
	t.Run("detected devices then manual entry", func(t *testing.T) {
		items := deviceItems([]models.Device{{Mountpoint: "/Volumes/IPOD", Name: "Classic"}}, nil)
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		if items[0].(deviceItem).kind != deviceDetected || items[1].(deviceItem).kind != deviceManual {
			t.Errorf("items = %+v", items)
		}
	})

	t.Run("failure keeps manual entry", func(t *testing.T) {
		items := deviceItems(nil, errors.New("boom"))
		if len(items) != 2 || items[0].(deviceItem).kind != deviceFailed {
			t.Errorf("items = %+v", items)
		}
	})
}

func TestSession_Settle(t *testing.T) {
	s := newSession(t.Context(), Options{})

	t.Run("latest token wins", func(t *testing.T) {
		old := s.seq.Next(keyLibraryAlbums)
		s.loading[keyLibraryAlbums] = old
		current := s.seq.Next(keyLibraryAlbums)
		s.loading[keyLibraryAlbums] = current

		if s.settle(loadedMsg(MsgLibraryAlbums, keyLibraryAlbums, old, nil, nil)) {
			t.Error("older token should be stale")
		}
		if !s.inFlight() {
			t.Error("current load is still outstanding")
		}
		if !s.settle(loadedMsg(MsgLibraryAlbums, keyLibraryAlbums, current, nil, nil)) {
			t.Error("current token should apply")
		}
		if s.inFlight() {
			t.Error("nothing should be loading")
		}
	})

	t.Run("invalidate drops in flight", func(t *testing.T) {
		token := s.seq.Next(keyAlbumExpansion)
		s.invalidate(keyAlbumExpansion)
		if s.settle(loadedMsg(MsgAlbumTracks, keyAlbumExpansion, token, nil, nil)) {
			t.Error("invalidated load should be dropped")
		}
	})

	t.Run("mutations always apply", func(t *testing.T) {
		s.busy = 1
		msg := resultMsg(MsgBulkDone, nil, nil)
		msg.key = keyMutation
		if !s.settle(msg) || s.busy != 0 {
			t.Errorf("settle(mutation) busy = %d", s.busy)
		}
	})
}

func TestFailure(t *testing.T) {
	if got := failure(shared.ErrEmptySelection, "x"); got != "No tracks selected" {
		t.Errorf("failure(ErrEmptySelection) = %q", got)
	}
	if got := failure(errors.New("dial tcp: refused"), "Failed to load"); got != "Failed to load" {
		t.Errorf("failure(network) = %q", got)
	}
}

func keyMsg(k string) tea.KeyMsg {
	if k == "ctrl+l" {
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}
