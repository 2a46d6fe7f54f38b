package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/podx/internal/models"
	th "github.com/desertthunder/podx/internal/testing"
)

func testExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:         12,
			Name:       "Road Trip!",
			TrackCount: 2,
		},
		Tracks: []models.Track{
			{
				ID:         101,
				TrackNr:    1,
				Title:      "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				Genre:      "Rock",
				DurationMS: 180000,
				PlayCount:  7,
			},
			{
				ID:       102,
				Title:    "Song Two",
				Artist:   "",
				Duration: 240000,
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Track,Title,Artist,Album,Genre,Duration,Plays") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "101,1,Song One,Artist One,Album One,Rock,3:00,7") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "102,0,Song Two,,,,4:00,0") {
			t.Errorf("CSV missing track2 row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		export := testExport()

		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Road Trip!") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Tracks**: 2") {
				t.Errorf("Markdown missing track count")
			}
			if !strings.Contains(output, "**Length**: 7:00") {
				t.Errorf("Markdown missing total length, got: %s", output)
			}
			if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
				t.Errorf("Markdown missing track1, got: %s", output)
			}
			if !strings.Contains(output, "2. Unknown - Song Two [4:00]") {
				t.Errorf("Markdown missing track2 (no album), got: %s", output)
			}
			if strings.Contains(output, "![Cover]") {
				t.Errorf("Markdown should not reference a cover")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Road Trip!") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing track1")
		}
		if !strings.Contains(output, "2. Unknown - Song Two") {
			t.Errorf("Text missing track2")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(models.Playlist{ID: 3, Name: "Sleep", TrackCount: 10})
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded models.Playlist
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.ID != 3 || decoded.Name != "Sleep" || decoded.TrackCount != 10 {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		playlist models.Playlist
		want     string
	}{
		{models.Playlist{ID: 12, Name: "Road Trip!"}, "12_road-trip"},
		{models.Playlist{ID: 1, Name: "  80s / 90s  Mix "}, "1_80s-90s-mix"},
		{models.Playlist{ID: 5, Name: "???"}, "5_playlist"},
		{models.Playlist{ID: 7, Name: "Café"}, "7_caf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := BaseName(tt.playlist); got != tt.want {
				t.Errorf("BaseName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range Formats {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if ValidFormat("xml") || ValidFormat("") {
		t.Error("unexpected format accepted")
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "mix")
		res, err := WriteCSVExport(testExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if res.TracksFile != base+"_tracks.csv" || res.MetadataFile != base+"_metadata.json" {
			t.Errorf("result = %+v", res)
		}
		th.AssertFileExists(t, res.TracksFile)
		if content := th.MustReadFile(t, res.MetadataFile); !strings.Contains(content, `"name": "Road Trip!"`) {
			t.Errorf("metadata = %s", content)
		}
	})

	t.Run("WriteCSVExport with default path", func(t *testing.T) {
		t.Chdir(t.TempDir())
		res, err := WriteCSVExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if res.TracksFile != "12_road-trip_tracks.csv" {
			t.Errorf("TracksFile = %s", res.TracksFile)
		}
		th.AssertFileExists(t, res.TracksFile)
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")

		t.Run("without cover", func(t *testing.T) {
			res, err := WriteMarkdownExport(testExport(), dir, nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(res.Files) != 1 || res.CoverImage != "" {
				t.Errorf("result = %+v", res)
			}
			th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		})

		t.Run("with cover", func(t *testing.T) {
			res, err := WriteMarkdownExport(testExport(), dir, []byte{0xff, 0xd8})
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(res.Files) != 2 || res.CoverImage != filepath.Join(dir, "cover.jpg") {
				t.Errorf("result = %+v", res)
			}
			if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
				t.Error("README should reference cover.jpg")
			}
		})

		t.Run("unwritable directory", func(t *testing.T) {
			parent := t.TempDir()
			blocker := filepath.Join(parent, "file")
			if err := os.WriteFile(blocker, nil, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := WriteMarkdownExport(testExport(), filepath.Join(blocker, "sub"), nil); err == nil {
				t.Error("expected error when directory cannot be created")
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.txt")
		got, err := WriteTextExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("path = %s", got)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "Playlist: Road Trip!") {
			t.Error("unexpected text content")
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.json")
		if _, err := WriteJSONExport(testExport(), path); err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		var decoded models.PlaylistExport
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Tracks) != 2 || decoded.Tracks[0].ID != 101 {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		manifest := &models.ExportManifest{
			Format:         FormatCSV,
			TotalPlaylists: 2,
			Successful:     1,
			Failed:         1,
			Results: []models.PlaylistExportResult{
				{PlaylistID: 1, PlaylistName: "A", Success: true, Files: []string{"a.csv"}},
				{PlaylistID: 2, PlaylistName: "B", Error: "failed to fetch playlist"},
			},
		}
		if err := WriteManifest(manifest, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}
		content := th.MustReadFile(t, path)
		if !strings.Contains(content, `"failed": 1`) || !strings.Contains(content, "failed to fetch playlist") {
			t.Errorf("manifest = %s", content)
		}
	})
}

func TestUploadReport(t *testing.T) {
	result := &models.UploadResult{
		Added:      []models.UploadEntry{{Filename: "a.mp3", Artist: "X", Title: "Y"}, {Filename: "b.mp3"}},
		Duplicates: []models.UploadEntry{{Filename: "c.mp3"}},
		Errors:     []models.UploadEntry{{Filename: "d.flac", Reason: "File too large"}, {Filename: "e.mp3"}},
	}

	sections := UploadReport(result)
	if len(sections) != 3 {
		t.Fatalf("sections = %v", sections)
	}
	if sections[0].Title != "Added (2)" || sections[0].Lines[0] != "X - Y" || sections[0].Lines[1] != "b.mp3" {
		t.Errorf("added = %+v", sections[0])
	}
	if sections[1].Lines[0] != "c.mp3 (already in library)" {
		t.Errorf("duplicates = %+v", sections[1])
	}
	if sections[2].Lines[0] != "d.flac: File too large" || sections[2].Lines[1] != "e.mp3: Unknown error" {
		t.Errorf("errors = %+v", sections[2])
	}

	text := RenderReport(sections)
	if !strings.HasPrefix(text, "Added (2)\n  X - Y\n") || !strings.Contains(text, "\nErrors (2)\n") {
		t.Errorf("RenderReport() = %q", text)
	}

	if got := UploadReport(&models.UploadResult{Errors: result.Errors}); len(got) != 1 {
		t.Errorf("empty sections should be skipped, got %v", got)
	}
	if UploadReport(nil) != nil {
		t.Error("nil result should give no sections")
	}
}

func TestUploadToast(t *testing.T) {
	tests := []struct {
		name   string
		result models.UploadResult
		want   string
	}{
		{"one", models.UploadResult{Added: make([]models.UploadEntry, 1)}, "1 track uploaded"},
		{"many", models.UploadResult{Added: make([]models.UploadEntry, 3), Errors: make([]models.UploadEntry, 1)}, "3 tracks uploaded"},
		{"duplicates", models.UploadResult{Duplicates: make([]models.UploadEntry, 2)}, "All files already in library"},
		{"failed", models.UploadResult{Errors: make([]models.UploadEntry, 2)}, "No tracks uploaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UploadToast(&tt.result); got != tt.want {
				t.Errorf("UploadToast() = %q, want %q", got, tt.want)
			}
		})
	}
}
