package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	tu "github.com/desertthunder/podx/internal/testing"
)

// harness runs commands against a fake back end with an in-memory history database.
type harness struct {
	backend *tu.Backend
	runner  *Runner
	output  *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	b := tu.NewBackend(t)
	db, err := shared.OpenHistory(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		API:    services.NewClient(services.ClientOptions{BaseURL: b.URL(), Timeout: 5 * time.Second}),
		DB:     db,
		Logger: shared.NewLogger(io.Discard),
		Input:  strings.NewReader(input),
		Output: output,
	})
	return &harness{backend: b, runner: runner, output: output}
}

func (h *harness) run(args ...string) error {
	app := &cli.Command{
		Name: "podx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "verbose"},
			&cli.BoolFlag{Name: "no-color", Value: true},
		},
		Before:   h.runner.Before,
		Commands: h.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"podx"}, args...))
}

func (h *harness) playlists() {
	h.backend.JSON(http.MethodGet, "/api/ipod/playlists", http.StatusOK, map[string]any{"playlists": []map[string]any{
		{"id": 1, "name": "Classic", "track_count": 40, "is_master": true},
		{"id": 2, "name": "Road", "track_count": 3},
	}})
}

func decodeBulk(t *testing.T, body []byte) models.BulkRequest {
	t.Helper()
	var req models.BulkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("request body %s: %v", body, err)
	}
	return req
}

func TestDeviceCommands(t *testing.T) {
	t.Run("add sends one batch with the playlist", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusOK, map[string]any{
			"added": []int{11, 12}, "skipped_duplicates": []int{13}, "errors": []any{},
		})

		if err := h.run("device", "add", "--playlist", "2", "11,12", "13", "12"); err != nil {
			t.Fatalf("run() error = %v", err)
		}

		if n := h.backend.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 1 {
			t.Fatalf("add-tracks called %d times, want 1", n)
		}
		last, _ := h.backend.Last(http.MethodPost, "/api/ipod/add-tracks")
		req := decodeBulk(t, last.Body)
		if len(req.TrackIDs) != 3 || req.TrackIDs[0] != 11 || req.TrackIDs[2] != 13 {
			t.Errorf("track_ids = %v, want [11 12 13]", req.TrackIDs)
		}
		if req.PlaylistID == nil || *req.PlaylistID != 2 {
			t.Errorf("playlist_id = %v, want 2", req.PlaylistID)
		}
		if want := "Added 2 tracks to playlist 2 (1 duplicate skipped, 0 errors)"; !strings.Contains(h.output.String(), want) {
			t.Errorf("output = %q, want %q", h.output.String(), want)
		}

		recent, err := h.runner.history.Recent(10)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(recent.Batches) != 1 || recent.Batches[0].Kind() != models.BulkAdd {
			t.Errorf("batches = %+v, want one add", recent.Batches)
		}
	})

	t.Run("add without ids sends nothing", func(t *testing.T) {
		h := newHarness(t, "")

		err := h.run("device", "add")
		if !errors.Is(err, shared.ErrEmptySelection) {
			t.Fatalf("run() error = %v, want ErrEmptySelection", err)
		}
		if len(h.backend.Requests()) != 0 {
			t.Errorf("expected no requests, got %d", len(h.backend.Requests()))
		}
	})

	t.Run("add surfaces the server message", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusConflict, map[string]any{"error": "Device busy"})

		err := h.run("device", "add", "11")
		if err == nil || !strings.Contains(err.Error(), "Device busy") {
			t.Fatalf("run() error = %v, want server message", err)
		}
		if services.StatusOf(err) != http.StatusConflict {
			t.Errorf("StatusOf() = %d, want 409", services.StatusOf(err))
		}
	})

	t.Run("remove asks first", func(t *testing.T) {
		h := newHarness(t, "n\n")
		h.backend.JSON(http.MethodPost, "/api/ipod/remove-tracks", http.StatusOK, map[string]any{"removed": 1})

		if err := h.run("device", "remove", "11"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if n := h.backend.Count(http.MethodPost, "/api/ipod/remove-tracks"); n != 0 {
			t.Errorf("remove-tracks called %d times after declining", n)
		}
		if !strings.Contains(h.output.String(), "Canceled") {
			t.Errorf("output = %q, want cancel notice", h.output.String())
		}
	})

	t.Run("remove with --yes", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodPost, "/api/ipod/remove-tracks", http.StatusOK, map[string]any{"removed": 2})

		if err := h.run("device", "rm", "--yes", "11", "12"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Removed 2 tracks") {
			t.Errorf("output = %q", h.output.String())
		}
	})

	t.Run("connect picks the only detected device", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodGet, "/api/ipod/detect", http.StatusOK, map[string]any{"devices": []string{"/Volumes/IPOD"}})
		h.backend.JSON(http.MethodPost, "/api/ipod/connect", http.StatusOK, map[string]any{"name": "Classic"})

		if err := h.run("device", "connect"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		last, ok := h.backend.Last(http.MethodPost, "/api/ipod/connect")
		if !ok || !strings.Contains(string(last.Body), "/Volumes/IPOD") {
			t.Errorf("connect body = %s", last.Body)
		}
		if !strings.Contains(h.output.String(), "Connected to Classic") {
			t.Errorf("output = %q", h.output.String())
		}
	})

	t.Run("connect with nothing detected", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodGet, "/api/ipod/detect", http.StatusOK, map[string]any{"devices": []string{}})

		if err := h.run("device", "connect"); !errors.Is(err, shared.ErrNoDevice) {
			t.Fatalf("run() error = %v, want ErrNoDevice", err)
		}
		if n := h.backend.Count(http.MethodPost, "/api/ipod/connect"); n != 0 {
			t.Errorf("connect called %d times", n)
		}
	})

	t.Run("tracks filters by artist", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodGet, "/api/ipod/tracks", http.StatusOK, map[string]any{"tracks": []map[string]any{
			{"id": 1, "title": "Intro", "artist": "Band", "album": "First"},
			{"id": 2, "title": "Other", "artist": "Solo", "album": "Second"},
		}})

		if err := h.run("device", "tracks", "--artist", "band", "--json", "--pretty=false"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		var tracks []models.Track
		if err := json.Unmarshal(h.output.Bytes(), &tracks); err != nil {
			t.Fatalf("output %q: %v", h.output.String(), err)
		}
		if len(tracks) != 1 || tracks[0].ID != 1 {
			t.Errorf("tracks = %+v, want only Intro", tracks)
		}
	})

	t.Run("status when disconnected", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodGet, "/api/ipod/status", http.StatusOK, map[string]any{"connected": false})

		if err := h.run("device", "status"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Not connected") {
			t.Errorf("output = %q", h.output.String())
		}
		if n := h.backend.Count(http.MethodGet, "/api/ipod/storage"); n != 0 {
			t.Errorf("storage requested while disconnected")
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	t.Run("master playlist cannot be deleted", func(t *testing.T) {
		h := newHarness(t, "")
		h.playlists()

		if err := h.run("device", "playlists", "delete", "--yes", "1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("run() error = %v, want ErrInvalidArgument", err)
		}
		for _, r := range h.backend.Requests() {
			if r.Method == http.MethodDelete {
				t.Errorf("unexpected DELETE %s", r.Path)
			}
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		h := newHarness(t, "")
		h.playlists()

		if err := h.run("device", "pl", "delete", "--yes", "9"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("run() error = %v, want ErrPlaylistNotFound", err)
		}
	})

	t.Run("delete with --yes", func(t *testing.T) {
		h := newHarness(t, "")
		h.playlists()
		h.backend.JSON(http.MethodDelete, "/api/ipod/playlists/{id}", http.StatusOK, map[string]any{"success": true})

		if err := h.run("device", "playlists", "delete", "--yes", "2"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if _, ok := h.backend.Last(http.MethodDelete, "/api/ipod/playlists/2"); !ok {
			t.Error("expected DELETE /api/ipod/playlists/2")
		}
	})

	t.Run("export writes one file per playlist", func(t *testing.T) {
		h := newHarness(t, "")
		h.playlists()
		h.backend.JSON(http.MethodGet, "/api/ipod/playlists/{id}/tracks", http.StatusOK, map[string]any{"tracks": []map[string]any{
			{"id": 1, "title": "Intro", "artist": "Band", "album": "First"},
		}})
		dir := t.TempDir()

		if err := h.run("device", "playlists", "export", "--format", "json", "--output", dir, "2"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Exported:  1/1 playlists") {
			t.Errorf("output = %q", h.output.String())
		}
		matches, _ := filepath.Glob(filepath.Join(dir, "*.json"))
		if len(matches) == 0 {
			t.Errorf("expected exported files in %s", dir)
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("device", "playlists", "export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("run() error = %v, want ErrInvalidFlag", err)
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("tracks uses the configured page size", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodGet, "/api/library/tracks", http.StatusOK, map[string]any{"tracks": []any{}})

		if err := h.run("library", "tracks", "--sort", "Artist", "--search", "band"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		last, _ := h.backend.Last(http.MethodGet, "/api/library/tracks")
		q, _ := url.ParseQuery(last.Query)
		if q.Get("per_page") != "500" || q.Get("sort") != "artist" || q.Get("search") != "band" || q.Get("page") != "1" {
			t.Errorf("query = %s", last.Query)
		}
	})

	t.Run("tracks rejects unknown sort", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("library", "tracks", "--sort", "bpm"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("run() error = %v, want ErrInvalidFlag", err)
		}
		if len(h.backend.Requests()) != 0 {
			t.Error("expected no request for an invalid sort")
		}
	})

	t.Run("artwork saves to file", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.HandleFunc(http.MethodGet, "/api/artwork/{hash}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes"))
		})
		path := filepath.Join(t.TempDir(), "cover.png")

		if err := h.run("library", "artwork", "--output", path, "abc123"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if got := tu.MustReadFile(t, path); got != "png-bytes" {
			t.Errorf("artwork = %q", got)
		}
	})

	t.Run("upload runs the queue and records history", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.HandleFunc(http.MethodPost, "/api/library/upload", func(w http.ResponseWriter, r *http.Request) {
			_, header, err := r.FormFile(services.UploadField)
			if err != nil {
				tu.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			switch header.Filename {
			case "dupe.mp3":
				tu.WriteJSON(w, http.StatusOK, map[string]any{"duplicates": []map[string]any{{"filename": header.Filename}}})
			case "bad.mp3":
				tu.WriteJSON(w, http.StatusOK, map[string]any{"errors": []map[string]any{{"filename": header.Filename, "reason": "Unsupported format"}}})
			default:
				tu.WriteJSON(w, http.StatusOK, map[string]any{"added": []map[string]any{{"filename": header.Filename, "artist": "Band", "title": "New"}}})
			}
		})

		dir := t.TempDir()
		tu.WriteMediaFile(t, dir, "a/new.mp3", 128)
		tu.WriteMediaFile(t, dir, "b/dupe.mp3", 64)
		tu.WriteMediaFile(t, dir, "bad.mp3", 32)
		tu.WriteMediaFile(t, dir, "notes.txt", 16)

		if err := h.run("library", "upload", "--quiet", dir); err != nil {
			t.Fatalf("run() error = %v", err)
		}

		if n := h.backend.Count(http.MethodPost, "/api/library/upload"); n != 3 {
			t.Errorf("upload called %d times, want 3", n)
		}
		out := h.output.String()
		for _, want := range []string{"Upload complete: 3 files", "Added (1)", "Band - New", "Duplicates (1)", "dupe.mp3 (already in library)", "Errors (1)", "bad.mp3: Unsupported format"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		recent, err := h.runner.history.Recent(5)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(recent.Runs) != 1 {
			t.Fatalf("runs = %d, want 1", len(recent.Runs))
		}
		run := recent.Runs[0]
		if run.Total() != 3 || run.Added() != 1 || run.Duplicates() != 1 || run.Errors() != 1 || !run.Finished() {
			t.Errorf("run = total %d added %d dupes %d errors %d finished %v", run.Total(), run.Added(), run.Duplicates(), run.Errors(), run.Finished())
		}
	})

	t.Run("upload with nothing to send", func(t *testing.T) {
		h := newHarness(t, "")
		dir := t.TempDir()
		tu.WriteMediaFile(t, dir, "notes.txt", 16)

		if err := h.run("library", "upload", dir); !errors.Is(err, shared.ErrEmptyQueue) {
			t.Fatalf("run() error = %v, want ErrEmptyQueue", err)
		}
	})

	t.Run("import-m3u previews unmatched entries", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodPost, "/api/library/import-m3u", http.StatusOK, map[string]any{
			"matched_count":   1,
			"unmatched_count": 1,
			"matched_tracks":  []map[string]any{{"id": 11, "title": "Intro", "artist": "Band"}},
			"unmatched":       []string{"missing.mp3"},
		})
		path := filepath.Join(t.TempDir(), "mix.m3u")
		if err := os.WriteFile(path, []byte("#EXTM3U\nintro.mp3\nmissing.mp3\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := h.run("library", "import-m3u", path); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if n := h.backend.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 0 {
			t.Errorf("add-tracks called without --add")
		}
		if !strings.Contains(h.output.String(), "Matched:") {
			t.Errorf("output = %q", h.output.String())
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("list after a bulk action", func(t *testing.T) {
		h := newHarness(t, "")
		h.backend.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusOK, map[string]any{"added": 1})

		if err := h.run("device", "add", "11"); err != nil {
			t.Fatalf("add error = %v", err)
		}
		h.output.Reset()

		if err := h.run("history", "list", "--json", "--pretty=false"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		var got struct {
			Runs    []runView   `json:"runs"`
			Batches []batchView `json:"batches"`
		}
		if err := json.Unmarshal(h.output.Bytes(), &got); err != nil {
			t.Fatalf("output %q: %v", h.output.String(), err)
		}
		if len(got.Runs) != 0 || len(got.Batches) != 1 {
			t.Fatalf("history = %+v", got)
		}
		if got.Batches[0].Requested != 1 || got.Batches[0].Result.Added != 1 {
			t.Errorf("batch = %+v", got.Batches[0])
		}
	})

	t.Run("show unknown run", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("history", "show", "nope"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Fatalf("run() error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("history", "list", "--limit", "0"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("run() error = %v, want ErrInvalidFlag", err)
		}
	})

	t.Run("migrations are applied", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.run("history", "migrations"); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if strings.Contains(h.output.String(), "pending") {
			t.Errorf("expected every migration applied:\n%s", h.output.String())
		}
	})
}

func TestSetupConfig(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := h.run("--config", path, "setup", "config"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	tu.AssertFileExists(t, path)

	if err := h.run("--config", path, "setup", "config"); err == nil {
		t.Error("expected an error when the file already exists")
	}
}
