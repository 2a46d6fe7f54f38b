package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/podx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// Loads carry the sequencer key and token they were issued under; the root model drops
// a Msg whose token is no longer the latest for its key.
type Msg struct {
	kind  MsgKind
	key   string
	token uint64
	data  any
	err   error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDevicesDetected MsgKind = iota
	MsgConnected
	MsgDisconnected
	MsgStatus
	MsgPlaylistsLoaded
	MsgPlaylistCreated
	MsgPlaylistDeleted
	MsgDeviceTracks
	MsgBrowserHeader
	MsgBrowserTracks
	MsgBrowserAlbums
	MsgBrowserArtists
	MsgBrowserGenres
	MsgBrowserPlaylists
	MsgLibraryAlbums
	MsgLibraryTracks
	MsgAlbumTracks
	MsgBulkDone
	MsgRemoveDone
	MsgScanStarted
	MsgExportStarted
	MsgUploadProgress
	MsgUploadDone
	MsgSearch
	MsgToast
	MsgToastExpired
)

// Sequencer keys, one per independently reloaded view.
const (
	keyDetect          = "device.detect"
	keyStatus          = "device.status"
	keyPlaylists       = "device.playlists"
	keyDeviceTracks    = "device.tracks"
	keyBrowserHeader   = "browser.header"
	keyBrowserList     = "browser.list"
	keyLibraryAlbums   = "library.albums"
	keyLibraryTracks   = "library.tracks"
	keyAlbumExpansion  = "library.expansion"
	keyBrowserSearch   = "browser.search"
	keyLibrarySearch   = "library.search"
	keyToast           = "toast"
	searchDebounceTime = 300 * time.Millisecond
)

// Kind reports which member of the union m is.
func (m Msg) Kind() MsgKind {
	return m.kind
}

// sequenced reports whether m must be checked against the sequencer.
func (m Msg) sequenced() bool {
	return m.key != "" && m.token != 0
}

// loadedMsg is the constructor for every load completion.
func loadedMsg(kind MsgKind, key string, token uint64, data any, err error) Msg {
	return Msg{kind: kind, key: key, token: token, data: data, err: err}
}

// resultMsg is the constructor for mutations, which are never superseded.
func resultMsg(kind MsgKind, data any, err error) Msg {
	return Msg{kind: kind, data: data, err: err}
}

// progressUpdateMsg is the constructor for [MsgUploadProgress]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgUploadProgress, data: update}
}

// searchMsg fires after the debounce delay; only the latest token for key applies its query.
func searchMsg(key string, token uint64, query string) Msg {
	return Msg{kind: MsgSearch, key: key, token: token, data: query}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(l level, text string) Msg {
	return Msg{kind: MsgToast, data: toast{level: l, text: text}}
}

// notify emits a toast from a panel.
func notify(l level, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg(l, text) }
}
