package models

import (
	"time"
)

// TrackID identifies a track on the back end. Ids are opaque integers and never edited locally.
type TrackID = int64

// Track is a library or device track.
//
// The back end reports the length in milliseconds under either "duration_ms" or "duration".
type Track struct {
	ID         TrackID `json:"id"`
	TrackNr    int     `json:"track_nr,omitempty"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Genre      string  `json:"genre,omitempty"`
	DurationMS int64   `json:"duration_ms,omitempty"`
	Duration   int64   `json:"duration,omitempty"`
	PlayCount  int     `json:"playcount,omitempty"`
	Filename   string  `json:"filename,omitempty"`
}

// Length returns the track length, preferring duration_ms.
func (t Track) Length() time.Duration {
	ms := t.DurationMS
	if ms == 0 {
		ms = t.Duration
	}
	return time.Duration(ms) * time.Millisecond
}

// DisplayArtist falls back to "Unknown" like the back end's own listings.
func (t Track) DisplayArtist() string {
	if t.Artist == "" {
		return "Unknown"
	}
	return t.Artist
}

// DisplayTitle falls back to "Unknown" like the back end's own listings.
func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return "Unknown"
	}
	return t.Title
}

// TrackIDList extracts ids in order.
func TrackIDList(tracks []Track) []TrackID {
	ids := make([]TrackID, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// Album is a library album card. Device albums reuse the same shape with Album/Artist/TrackCount.
type Album struct {
	Album       string `json:"album"`
	Name        string `json:"name,omitempty"`
	Artist      string `json:"artist"`
	TrackCount  int    `json:"track_count"`
	ArtworkHash string `json:"artwork_hash,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// Title returns the album name from whichever field the endpoint filled.
func (a Album) Title() string {
	if a.Album != "" {
		return a.Album
	}
	return a.Name
}

// Key identifies an album card by (album, artist); two artists can release albums with the same name.
func (a Album) Key() string {
	return a.Title() + "\x00" + a.Artist
}

// Artist is a device artist row.
type Artist struct {
	Name       string `json:"name"`
	AlbumCount int    `json:"album_count"`
	TrackCount int    `json:"track_count"`
}

// Genre is a device genre row.
type Genre struct {
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
}

// PlaylistID identifies a device playlist.
type PlaylistID = int64

// Playlist is a device playlist. The master playlist holds every track and cannot be deleted.
type Playlist struct {
	ID         PlaylistID `json:"id"`
	Name       string     `json:"name"`
	TrackCount int        `json:"track_count"`
	IsMaster   bool       `json:"is_master"`
}

// UserPlaylists drops the master playlist, leaving the valid add-to-playlist targets.
func UserPlaylists(playlists []Playlist) []Playlist {
	out := make([]Playlist, 0, len(playlists))
	for _, p := range playlists {
		if !p.IsMaster {
			out = append(out, p)
		}
	}
	return out
}

// M3UImport is the back end's match report for an M3U playlist file.
type M3UImport struct {
	MatchedCount   int     `json:"matched_count"`
	UnmatchedCount int     `json:"unmatched_count"`
	MatchedTracks  []Track `json:"matched_tracks"`
}

// ContentType selects which part of the library all-track-ids returns.
type ContentType string

const (
	ContentMusic   ContentType = "music"
	ContentPodcast ContentType = "podcast"
)

// TrackIDs is the all-track-ids response.
type TrackIDs struct {
	TrackIDs []TrackID `json:"track_ids"`
	Count    int       `json:"count"`
}
