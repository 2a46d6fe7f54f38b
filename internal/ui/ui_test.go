package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	th "github.com/desertthunder/podx/internal/testing"
)

var libraryTrackFixtures = []models.Track{
	{ID: 11, TrackNr: 1, Title: "Intro", Artist: "Band", Album: "First"},
	{ID: 12, TrackNr: 2, Title: "Song", Artist: "Band", Album: "First"},
	{ID: 13, TrackNr: 1, Title: "Other", Artist: "Solo", Album: "Second"},
}

// newBackend fakes a connected player with a small library.
func newBackend(t *testing.T) *th.Backend {
	t.Helper()
	b := th.NewBackend(t)
	b.JSON(http.MethodGet, "/api/ipod/detect", http.StatusOK, map[string]any{"devices": []any{}})
	b.JSON(http.MethodGet, "/api/ipod/status", http.StatusOK, map[string]any{"connected": true, "name": "Classic", "mountpoint": "/Volumes/IPOD"})
	b.JSON(http.MethodGet, "/api/ipod/playlists", http.StatusOK, []map[string]any{
		{"id": 1, "name": "Classic", "track_count": 40, "is_master": true},
		{"id": 2, "name": "Road", "track_count": 3},
	})
	b.JSON(http.MethodGet, "/api/library/albums", http.StatusOK, map[string]any{"albums": []map[string]any{
		{"album": "First", "artist": "Band", "track_count": 2},
		{"album": "Second", "artist": "Solo", "track_count": 1},
	}})
	b.JSON(http.MethodGet, "/api/library/tracks", http.StatusOK, map[string]any{"tracks": libraryTrackFixtures})
	b.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusOK, map[string]any{"added": 2, "duplicates": 0, "errors": 0})
	return b
}

func newTestModel(t *testing.T, b *th.Backend) *Model {
	t.Helper()
	client := services.NewClient(services.ClientOptions{BaseURL: b.URL(), Timeout: 5 * time.Second})
	m := NewModel(context.Background(), Options{API: client, Debounce: 10 * time.Millisecond})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// run executes cmd and everything it leads to, feeding each [Msg] back through m.
// Commands still blocked after a short wait (toast expiry, spinner ticks) are abandoned.
func run(t *testing.T, m *Model, cmd tea.Cmd) []Msg {
	t.Helper()
	var seen []Msg
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		results := make(chan tea.Msg, len(pending))
		n := 0
		for _, c := range pending {
			if c == nil {
				continue
			}
			n++
			go func(c tea.Cmd) { results <- c() }(c)
		}
		pending = nil

		timeout := time.After(250 * time.Millisecond)
	collect:
		for range n {
			select {
			case msg := <-results:
				switch msg := msg.(type) {
				case tea.BatchMsg:
					pending = append(pending, msg...)
				case Msg:
					seen = append(seen, msg)
					_, next := m.Update(msg)
					pending = append(pending, next)
				}
			case <-timeout:
				break collect
			}
		}
	}
	return seen
}

func press(t *testing.T, m *Model, keys ...string) []Msg {
	t.Helper()
	var seen []Msg
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		seen = append(seen, run(t, m, cmd)...)
	}
	return seen
}

func toasts(msgs []Msg) []toast {
	var out []toast
	for _, msg := range msgs {
		if msg.kind == MsgToast {
			out = append(out, msg.data.(toast))
		}
	}
	return out
}

// boot runs the initial loads without the spinner.
func boot(t *testing.T, m *Model) {
	t.Helper()
	run(t, m, tea.Batch(m.device.Init(), m.library.Init()))
	if !m.s.connected() {
		t.Fatal("session should pick up the connected device from status")
	}
}

func TestModel_Tabs(t *testing.T) {
	b := newBackend(t)
	m := newTestModel(t, b)
	boot(t, m)

	t.Run("number keys switch tabs", func(t *testing.T) {
		press(t, m, "2")
		if m.Tab() != TabLibrary {
			t.Errorf("Tab() = %v, want library", m.Tab())
		}
		press(t, m, "3")
		if m.Tab() != TabUpload {
			t.Errorf("Tab() = %v, want upload", m.Tab())
		}
		press(t, m, "tab")
		if m.Tab() != TabDevice {
			t.Errorf("Tab() = %v, want device after wrap", m.Tab())
		}
	})

	t.Run("device mode opens and closes", func(t *testing.T) {
		b.JSON(http.MethodGet, "/api/ipod/storage", http.StatusOK, map[string]any{"used_gb": 10, "total_gb": 80, "percent_used": 12.5})
		b.JSON(http.MethodGet, "/api/ipod/device-info", http.StatusOK, map[string]any{"generation_string": "Classic 6G"})
		b.JSON(http.MethodGet, "/api/ipod/tracks", http.StatusOK, libraryTrackFixtures)

		press(t, m, "o")
		if !m.DeviceMode() {
			t.Fatal("o should open device mode when connected")
		}
		if got := m.browser.songs.Len(); got != len(libraryTrackFixtures) {
			t.Errorf("browser tracks = %d, want %d", got, len(libraryTrackFixtures))
		}
		if !strings.Contains(m.View(), "Device mode") {
			t.Error("view should show device mode header")
		}

		press(t, m, "esc")
		if m.DeviceMode() {
			t.Error("esc should leave device mode")
		}
	})
}

func TestModel_DeviceModeRequiresConnection(t *testing.T) {
	b := th.NewBackend(t)
	b.JSON(http.MethodGet, "/api/ipod/status", http.StatusOK, map[string]any{"connected": false})
	m := newTestModel(t, b)

	got := toasts(press(t, m, "o"))
	if m.DeviceMode() {
		t.Error("device mode should not open without a connection")
	}
	if len(got) != 1 || got[0].text != "Connect a device first" || got[0].level != levelWarning {
		t.Errorf("toasts = %+v", got)
	}
}

func TestModel_AddToPlaylist(t *testing.T) {
	t.Run("empty selection warns without a request", func(t *testing.T) {
		b := newBackend(t)
		m := newTestModel(t, b)
		boot(t, m)

		got := toasts(press(t, m, "2", "p"))
		if len(got) != 1 || got[0].text != "No tracks selected" {
			t.Errorf("toasts = %+v", got)
		}
		if m.library.picking {
			t.Error("picker should not open for an empty selection")
		}
		if n := b.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 0 {
			t.Errorf("add-tracks called %d times", n)
		}
	})

	t.Run("selection goes to the chosen playlist in one request", func(t *testing.T) {
		b := newBackend(t)
		m := newTestModel(t, b)
		boot(t, m)

		press(t, m, "2", "v", "space", "J")
		if got := m.library.tracks.SelectedIDs(); len(got) != 2 {
			t.Fatalf("selected = %v", got)
		}

		press(t, m, "p")
		if !m.library.picking {
			t.Fatal("picker should open")
		}
		got := toasts(press(t, m, "enter"))

		if n := b.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 1 {
			t.Fatalf("add-tracks called %d times, want 1", n)
		}
		req, _ := b.Last(http.MethodPost, "/api/ipod/add-tracks")
		var body models.BulkRequest
		if err := json.Unmarshal(req.Body, &body); err != nil {
			t.Fatalf("request body: %v", err)
		}
		if len(body.TrackIDs) != 2 || body.TrackIDs[0] != 11 || body.TrackIDs[1] != 12 {
			t.Errorf("track_ids = %v", body.TrackIDs)
		}
		if body.PlaylistID == nil || *body.PlaylistID != 2 {
			t.Errorf("playlist_id = %v, want the first user playlist", body.PlaylistID)
		}

		if len(got) == 0 || got[0].level != levelSuccess || !strings.HasPrefix(got[0].text, "Added 2 tracks to Road") {
			t.Errorf("toasts = %+v", got)
		}
		if !m.library.tracks.Selection().Empty() {
			t.Error("selection should clear after a successful add")
		}
	})

	t.Run("failure keeps the selection", func(t *testing.T) {
		b := newBackend(t)
		b.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusConflict, map[string]any{"error": "Device busy"})
		m := newTestModel(t, b)
		boot(t, m)

		press(t, m, "2", "v", "space")
		got := toasts(press(t, m, "A"))

		if len(got) == 0 || got[0].level != levelError || got[0].text != "Device busy" {
			t.Errorf("toasts = %+v", got)
		}
		if m.library.tracks.Selection().Len() != 1 {
			t.Error("selection should survive a failed add")
		}
	})
}

func TestModel_RemoveFromDevice(t *testing.T) {
	open := func(t *testing.T, b *th.Backend) *Model {
		t.Helper()
		b.JSON(http.MethodGet, "/api/ipod/storage", http.StatusOK, map[string]any{"used_gb": 10, "total_gb": 80, "percent_used": 12.5})
		b.JSON(http.MethodGet, "/api/ipod/device-info", http.StatusOK, map[string]any{"generation_string": "Classic 6G"})
		b.JSON(http.MethodGet, "/api/ipod/tracks", http.StatusOK, libraryTrackFixtures)
		m := newTestModel(t, b)
		boot(t, m)
		press(t, m, "o")
		if !m.DeviceMode() || m.browser.songs.Len() != len(libraryTrackFixtures) {
			t.Fatalf("device mode = %v, tracks = %d", m.DeviceMode(), m.browser.songs.Len())
		}
		return m
	}

	t.Run("empty selection warns without a request", func(t *testing.T) {
		b := newBackend(t)
		m := open(t, b)

		got := toasts(press(t, m, "d"))
		if len(got) != 1 || got[0].text != "No tracks selected" || got[0].level != levelWarning {
			t.Errorf("toasts = %+v", got)
		}
		if m.browser.confirm != nil {
			t.Error("no confirmation should be asked for an empty selection")
		}
		if n := b.Count(http.MethodPost, "/api/ipod/remove-tracks"); n != 0 {
			t.Errorf("remove-tracks called %d times", n)
		}
	})

	t.Run("declining sends nothing", func(t *testing.T) {
		b := newBackend(t)
		m := open(t, b)

		press(t, m, "space", "d")
		if m.browser.confirm == nil {
			t.Fatal("d should ask for confirmation")
		}
		press(t, m, "n")
		if m.browser.confirm != nil {
			t.Error("n should dismiss the confirmation")
		}
		if n := b.Count(http.MethodPost, "/api/ipod/remove-tracks"); n != 0 {
			t.Errorf("remove-tracks called %d times", n)
		}
		if m.browser.songs.Selection().Len() != 1 {
			t.Error("declining should keep the selection")
		}
	})

	t.Run("confirmed removal refreshes the device", func(t *testing.T) {
		b := newBackend(t)
		b.JSON(http.MethodPost, "/api/ipod/remove-tracks", http.StatusOK, map[string]any{"removed": 2})
		m := open(t, b)

		press(t, m, "space", "J", "d")
		if m.browser.confirm == nil || !strings.Contains(m.browser.confirm.prompt, "Remove 2 tracks") {
			t.Fatalf("confirm = %+v", m.browser.confirm)
		}

		tracks := b.Count(http.MethodGet, "/api/ipod/tracks")
		storage := b.Count(http.MethodGet, "/api/ipod/storage")
		info := b.Count(http.MethodGet, "/api/ipod/device-info")
		playlists := b.Count(http.MethodGet, "/api/ipod/playlists")

		got := toasts(press(t, m, "y"))

		if n := b.Count(http.MethodPost, "/api/ipod/remove-tracks"); n != 1 {
			t.Fatalf("remove-tracks called %d times, want 1", n)
		}
		req, _ := b.Last(http.MethodPost, "/api/ipod/remove-tracks")
		var body models.BulkRequest
		if err := json.Unmarshal(req.Body, &body); err != nil {
			t.Fatalf("request body: %v", err)
		}
		if len(body.TrackIDs) != 2 || body.TrackIDs[0] != 11 || body.TrackIDs[1] != 12 || body.PlaylistID != nil {
			t.Errorf("body = %+v", body)
		}

		if len(got) == 0 || got[0].level != levelSuccess || got[0].text != "Removed 2 tracks" {
			t.Errorf("toasts = %+v", got)
		}
		if !m.browser.songs.Selection().Empty() {
			t.Error("selection should clear after a successful removal")
		}
		if n := b.Count(http.MethodGet, "/api/ipod/tracks"); n != tracks+1 {
			t.Errorf("tracks fetched %d more times, want 1", n-tracks)
		}
		if b.Count(http.MethodGet, "/api/ipod/storage") != storage+1 || b.Count(http.MethodGet, "/api/ipod/device-info") != info+1 {
			t.Error("header should be fetched again")
		}
		if n := b.Count(http.MethodGet, "/api/ipod/playlists"); n != playlists+1 {
			t.Errorf("playlists fetched %d more times, want 1", n-playlists)
		}
	})

	t.Run("failure keeps the selection", func(t *testing.T) {
		b := newBackend(t)
		b.JSON(http.MethodPost, "/api/ipod/remove-tracks", http.StatusConflict, map[string]any{"error": "Device busy"})
		m := open(t, b)

		press(t, m, "space", "J", "d")
		tracks := b.Count(http.MethodGet, "/api/ipod/tracks")
		got := toasts(press(t, m, "y"))

		if n := b.Count(http.MethodPost, "/api/ipod/remove-tracks"); n != 1 {
			t.Errorf("remove-tracks called %d times, want 1", n)
		}
		if len(got) == 0 || got[0].level != levelError || got[0].text != "Failed to remove tracks: Device busy" {
			t.Errorf("toasts = %+v", got)
		}
		if m.browser.songs.Selection().Len() != 2 {
			t.Error("selection should survive a failed removal")
		}
		if n := b.Count(http.MethodGet, "/api/ipod/tracks"); n != tracks {
			t.Errorf("tracks fetched again after a failure")
		}
	})
}

func TestModel_AlbumExpansion(t *testing.T) {
	t.Run("album refresh drops an expansion still loading", func(t *testing.T) {
		b := newBackend(t)
		m := newTestModel(t, b)
		boot(t, m)

		pending := m.library.selectAlbum(0)
		run(t, m, m.library.loadAlbums())
		run(t, m, pending)

		if m.library.expanded != nil {
			t.Errorf("expansion opened for %q after the albums were replaced", m.library.expanded.album.Title())
		}
	})

	t.Run("batch clears only the album it came from", func(t *testing.T) {
		b := newBackend(t)
		m := newTestModel(t, b)
		boot(t, m)

		run(t, m, m.library.selectAlbum(0))
		if m.library.expanded == nil {
			t.Fatal("first album should expand")
		}
		m.library.expanded.sel.Toggle(11, 0)
		pending := m.library.addToDevice()

		run(t, m, m.library.selectAlbum(1))
		if m.library.expanded == nil || m.library.expanded.index != 1 {
			t.Fatal("second album should expand")
		}
		m.library.expanded.sel.Toggle(13, 2)

		run(t, m, pending)
		if n := b.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 1 {
			t.Fatalf("add-tracks called %d times, want 1", n)
		}
		if m.library.expanded.sel.Len() != 1 {
			t.Error("selection in another album should survive the batch")
		}

		pending = m.library.addToDevice()
		run(t, m, pending)
		if !m.library.expanded.sel.Empty() {
			t.Error("selection should clear when its album is still open")
		}
	})
}

func TestModel_OpenPlaylistRefresh(t *testing.T) {
	b := newBackend(t)
	b.JSON(http.MethodGet, "/api/ipod/playlists/2/tracks", http.StatusOK, map[string]any{"tracks": libraryTrackFixtures[:1]})
	m := newTestModel(t, b)
	boot(t, m)

	road := m.s.playlists[1]
	run(t, m, m.device.openPlaylist(road))
	if got := m.device.tracks.Len(); got != 1 {
		t.Fatalf("playlist tracks = %d, want 1", got)
	}

	// the list cursor moves away from the open playlist
	m.device.playlists.Select(0)
	if pl, _ := m.device.selectedPlaylist(); pl.ID == road.ID {
		t.Fatal("cursor should be on another playlist")
	}

	before := b.Count(http.MethodGet, "/api/ipod/playlists/2/tracks")
	press(t, m, "2", "v", "space", "p", "enter")

	if n := b.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 1 {
		t.Fatalf("add-tracks called %d times, want 1", n)
	}
	if n := b.Count(http.MethodGet, "/api/ipod/playlists/2/tracks"); n != before+1 {
		t.Errorf("open playlist fetched %d more times, want 1", n-before)
	}
	if m.device.title != "Road" {
		t.Errorf("title = %q, want the open playlist", m.device.title)
	}
}

func TestModel_StaleCompletion(t *testing.T) {
	b := newBackend(t)
	m := newTestModel(t, b)

	older := m.s.seq.Next(keyLibraryTracks)
	newer := m.s.seq.Next(keyLibraryTracks)

	m.Update(loadedMsg(MsgLibraryTracks, keyLibraryTracks, newer, libraryTrackFixtures[:1], nil))
	m.Update(loadedMsg(MsgLibraryTracks, keyLibraryTracks, older, libraryTrackFixtures, nil))

	if got := m.library.tracks.Len(); got != 1 {
		t.Errorf("tracks = %d, want the newer response only", got)
	}
}

func TestModel_Toast(t *testing.T) {
	b := newBackend(t)
	m := newTestModel(t, b)

	m.Update(toastMsg(levelInfo, "first"))
	m.Update(toastMsg(levelInfo, "second"))

	// tokens count up per key from 1
	m.Update(Msg{kind: MsgToastExpired, key: keyToast, token: 1})
	if m.toast.text != "second" {
		t.Errorf("stale expiry cleared the toast: %q", m.toast.text)
	}

	m.Update(Msg{kind: MsgToastExpired, key: keyToast, token: 2})
	if m.toast.text != "" {
		t.Errorf("toast = %q, want cleared", m.toast.text)
	}
}

func TestModel_Upload(t *testing.T) {
	b := newBackend(t)
	b.HandleFunc(http.MethodPost, "/api/library/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile(services.UploadField)
		if err != nil {
			th.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if header.Filename == "dupe.mp3" {
			th.WriteJSON(w, http.StatusOK, map[string]any{"duplicates": []map[string]any{{"filename": header.Filename}}})
			return
		}
		th.WriteJSON(w, http.StatusOK, map[string]any{"added": []map[string]any{{"filename": header.Filename, "artist": "Band", "title": "New"}}})
	})

	dir := t.TempDir()
	th.WriteMediaFile(t, dir, "new.mp3", 128)
	th.WriteMediaFile(t, dir, "dupe.mp3", 64)
	th.WriteMediaFile(t, dir, "notes.txt", 16)

	m := newTestModel(t, b)
	if _, err := m.upload.queue.AddPaths(dir); err != nil {
		t.Fatalf("AddPaths() error = %v", err)
	}
	if m.upload.queue.Len() != 2 {
		t.Fatalf("queue = %d files, want 2", m.upload.queue.Len())
	}

	got := toasts(press(t, m, "3", "u"))

	if n := b.Count(http.MethodPost, "/api/library/upload"); n != 2 {
		t.Errorf("upload called %d times, want 2", n)
	}
	if m.upload.running {
		t.Error("pipeline should be finished")
	}
	if m.upload.result == nil || len(m.upload.result.Added) != 1 || len(m.upload.result.Duplicates) != 1 {
		t.Fatalf("result = %+v", m.upload.result)
	}
	if m.upload.queue.Len() != 0 {
		t.Error("queue should reset after a run")
	}
	if len(got) == 0 || got[len(got)-1].text != "1 track uploaded" {
		t.Errorf("toasts = %+v", got)
	}
	if view := m.View(); !strings.Contains(view, "Upload complete") {
		t.Errorf("view missing report:\n%s", view)
	}
}
