package models

import (
	"path/filepath"
	"strings"
)

// Outcome is the bucket a file lands in after its upload settles.
type Outcome string

const (
	OutcomeAdded     Outcome = "added"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeError     Outcome = "error"
)

// UploadFile is one queued local file.
type UploadFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// NewUploadFile names the file after the last element of path.
func NewUploadFile(path string, size int64) UploadFile {
	return UploadFile{Path: path, Name: filepath.Base(path), Size: size}
}

// Ext is the lower-cased extension including the dot.
func (f UploadFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// UploadEntry describes one file in an upload response or result bucket.
type UploadEntry struct {
	Filename string `json:"filename"`
	Artist   string `json:"artist,omitempty"`
	Title    string `json:"title,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Label renders "Artist - Title" when the back end identified the track, else the filename.
func (e UploadEntry) Label() string {
	if e.Artist != "" || e.Title != "" {
		artist, title := e.Artist, e.Title
		if artist == "" {
			artist = "Unknown"
		}
		if title == "" {
			title = "Unknown"
		}
		return artist + " - " + title
	}
	return e.Filename
}

// UploadResponse is the body returned by the upload endpoint for one request.
type UploadResponse struct {
	Added      []UploadEntry `json:"added"`
	Duplicates []UploadEntry `json:"duplicates"`
	Errors     []UploadEntry `json:"errors"`
}

// Empty reports a response that classified nothing.
func (r UploadResponse) Empty() bool {
	return len(r.Added) == 0 && len(r.Duplicates) == 0 && len(r.Errors) == 0
}

// UploadResult aggregates a whole queue. Every queued file appears in exactly one bucket.
type UploadResult struct {
	Added      []UploadEntry `json:"added"`
	Duplicates []UploadEntry `json:"duplicates"`
	Errors     []UploadEntry `json:"errors"`
}

// Record appends entry to the bucket named by outcome.
func (r *UploadResult) Record(outcome Outcome, entry UploadEntry) {
	switch outcome {
	case OutcomeAdded:
		r.Added = append(r.Added, entry)
	case OutcomeDuplicate:
		r.Duplicates = append(r.Duplicates, entry)
	default:
		r.Errors = append(r.Errors, entry)
	}
}

// Total is the number of settled files.
func (r UploadResult) Total() int {
	return len(r.Added) + len(r.Duplicates) + len(r.Errors)
}
