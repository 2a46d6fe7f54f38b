package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/podx/internal/models"
)

var (
	_ list.Item = deviceItem{}
	_ list.Item = playlistItem{}
	_ list.Item = newPlaylistItem{}
	_ list.Item = albumItem{}
	_ list.Item = artistItem{}
	_ list.Item = genreItem{}
)

type deviceKind int

const (
	deviceDetected deviceKind = iota
	deviceFailed
	deviceManual
)

// deviceItem wraps [models.Device] to implement [list.Item]. Detection failures and the
// manual entry are rows too, so the picker is never empty.
type deviceItem struct {
	device models.Device
	kind   deviceKind
}

func (i deviceItem) FilterValue() string { return i.Title() }
func (i deviceItem) Title() string {
	switch i.kind {
	case deviceFailed:
		return "Detection failed"
	case deviceManual:
		return "Manual..."
	default:
		return i.device.Label()
	}
}
func (i deviceItem) Description() string {
	switch i.kind {
	case deviceFailed:
		return "press r to retry or enter a path"
	case deviceManual:
		return "enter a mountpoint"
	default:
		return i.device.Mountpoint
	}
}

// deviceItems builds the picker rows: detected devices (or the failure row), then the manual entry.
func deviceItems(devices []models.Device, err error) []list.Item {
	items := []list.Item{}
	if err != nil {
		items = append(items, deviceItem{kind: deviceFailed})
	}
	for _, d := range devices {
		items = append(items, deviceItem{device: d})
	}
	return append(items, deviceItem{kind: deviceManual})
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.playlist.IsMaster {
		return i.playlist.Name + " (all tracks)"
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d %s", i.playlist.TrackCount, pluralize(i.playlist.TrackCount, "track", "tracks"))
}

// newPlaylistItem is the picker entry that creates a playlist before adding to it.
type newPlaylistItem struct{}

func (newPlaylistItem) FilterValue() string { return "New playlist..." }
func (newPlaylistItem) Title() string       { return "New playlist..." }
func (newPlaylistItem) Description() string { return "create a playlist and add the selection" }

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album models.Album
}

func (i albumItem) FilterValue() string { return i.album.Title() + " " + i.album.Artist }
func (i albumItem) Title() string       { return i.album.Title() }
func (i albumItem) Description() string {
	return fmt.Sprintf("%s • %d %s", i.album.Artist, i.album.TrackCount, pluralize(i.album.TrackCount, "track", "tracks"))
}

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	artist models.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	return fmt.Sprintf("%d albums • %d tracks", i.artist.AlbumCount, i.artist.TrackCount)
}

// genreItem wraps [models.Genre] to implement [list.Item].
type genreItem struct {
	genre models.Genre
}

func (i genreItem) FilterValue() string { return i.genre.Name }
func (i genreItem) Title() string       { return i.genre.Name }
func (i genreItem) Description() string {
	return fmt.Sprintf("%d %s", i.genre.TrackCount, pluralize(i.genre.TrackCount, "track", "tracks"))
}

// newList creates a [list.Model] in the shared style with filtering off; panels own the search inputs.
func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
