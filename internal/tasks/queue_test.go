package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/podx/internal/models"
	th "github.com/desertthunder/podx/internal/testing"
)

func TestUploadQueue_Add(t *testing.T) {
	t.Run("filters extensions", func(t *testing.T) {
		q := NewUploadQueue(nil)
		added := q.Add(
			models.UploadFile{Name: "a.mp3", Size: 1},
			models.UploadFile{Name: "cover.jpg", Size: 2},
			models.UploadFile{Name: "B.FLAC", Size: 3},
			models.UploadFile{Name: "notes.txt", Size: 4},
			models.UploadFile{Name: "noext", Size: 5},
		)
		if added != 2 {
			t.Errorf("Add() = %d, want 2", added)
		}
		files := q.Files()
		if len(files) != 2 || files[0].Name != "a.mp3" || files[1].Name != "B.FLAC" {
			t.Errorf("Files() = %v", files)
		}
	})

	t.Run("dedups by name and size", func(t *testing.T) {
		q := NewUploadQueue(nil)
		q.Add(models.UploadFile{Name: "a.mp3", Size: 10})
		added := q.Add(
			models.UploadFile{Name: "a.mp3", Size: 10},
			models.UploadFile{Name: "a.mp3", Size: 11},
			models.UploadFile{Name: "b.mp3", Size: 10},
			models.UploadFile{Name: "b.mp3", Size: 10},
		)
		if added != 2 {
			t.Errorf("Add() = %d, want 2", added)
		}
		if q.Len() != 3 {
			t.Errorf("Len() = %d, want 3", q.Len())
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		q := NewUploadQueue([]string{"OGG", ".opus"})
		if !q.Allowed("x.ogg") || !q.Allowed("y.OPUS") {
			t.Error("custom extensions should be allowed in any case")
		}
		if q.Allowed("z.mp3") {
			t.Error("default extensions should not apply when a list is given")
		}
	})

	t.Run("remove reset and total", func(t *testing.T) {
		q := NewUploadQueue(nil)
		q.Add(
			models.UploadFile{Name: "a.mp3", Size: 100},
			models.UploadFile{Name: "b.m4a", Size: 200},
			models.UploadFile{Name: "c.wav", Size: 300},
		)
		if q.TotalSize() != 600 {
			t.Errorf("TotalSize() = %d", q.TotalSize())
		}
		if !q.Remove(1) {
			t.Fatal("Remove(1) = false")
		}
		if q.Remove(5) || q.Remove(-1) {
			t.Error("out of range Remove should fail")
		}
		files := q.Files()
		if len(files) != 2 || files[1].Name != "c.wav" {
			t.Errorf("Files() after remove = %v", files)
		}

		files[0].Name = "changed"
		if q.Files()[0].Name != "a.mp3" {
			t.Error("Files() should return a copy")
		}

		q.Reset()
		if q.Len() != 0 || q.TotalSize() != 0 {
			t.Error("Reset() should empty the queue")
		}
	})
}

func TestUploadQueue_AddPaths(t *testing.T) {
	dir := t.TempDir()
	album := filepath.Join(dir, "album")
	if err := os.MkdirAll(filepath.Join(album, "disc2"), 0755); err != nil {
		t.Fatal(err)
	}
	single := th.WriteMediaFile(t, dir, "single.mp3", 12)
	th.WriteMediaFile(t, album, "01.flac", 20)
	th.WriteMediaFile(t, album, "cover.jpg", 30)
	th.WriteMediaFile(t, filepath.Join(album, "disc2"), "01.m4a", 40)

	t.Run("files and directories", func(t *testing.T) {
		q := NewUploadQueue(nil)
		n, err := q.AddPaths(single, album, "  ")
		if err != nil {
			t.Fatalf("AddPaths() error = %v", err)
		}
		if n != 3 {
			t.Errorf("AddPaths() = %d, want 3", n)
		}
		if q.TotalSize() != 72 {
			t.Errorf("TotalSize() = %d, want 72", q.TotalSize())
		}
		if q.Files()[0].Path != single {
			t.Errorf("first path = %s", q.Files()[0].Path)
		}
	})

	t.Run("missing path keeps earlier files", func(t *testing.T) {
		q := NewUploadQueue(nil)
		n, err := q.AddPaths(single, filepath.Join(dir, "missing.mp3"))
		if err == nil {
			t.Fatal("expected error for missing path")
		}
		if n != 1 || q.Len() != 1 {
			t.Errorf("AddPaths() = %d, Len() = %d", n, q.Len())
		}
	})
}
