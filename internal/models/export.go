package models

import "time"

// PlaylistExport is a device playlist together with its tracks, as written by playlist exports.
type PlaylistExport struct {
	Playlist   Playlist  `json:"playlist"`
	Tracks     []Track   `json:"tracks"`
	ExportedAt time.Time `json:"exported_at"`
}

// TotalLength sums track lengths.
func (e PlaylistExport) TotalLength() time.Duration {
	var d time.Duration
	for _, t := range e.Tracks {
		d += t.Length()
	}
	return d
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   PlaylistID `json:"playlist_id"`
	PlaylistName string     `json:"playlist_name"`
	Success      bool       `json:"success"`
	Files        []string   `json:"files,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// ExportManifest summarizes a multi-playlist export and is written next to the exported files.
type ExportManifest struct {
	Format          string                 `json:"format"`
	OutputDirectory string                 `json:"output_directory"`
	TotalPlaylists  int                    `json:"total_playlists"`
	Successful      int                    `json:"successful"`
	Failed          int                    `json:"failed"`
	Results         []PlaylistExportResult `json:"results"`
	CreatedAt       time.Time              `json:"created_at"`
}
