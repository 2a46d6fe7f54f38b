package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/podx/internal/models"
)

type deviceFocus int

const (
	focusDevices deviceFocus = iota
	focusPlaylists
	focusTracks
)

type inputMode int

const (
	inputNone inputMode = iota
	inputMountpoint
	inputPlaylistName
)

var keyAllTracks = key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "all tracks"))

// devicePanel detects, connects and disconnects a player and manages its playlists.
type devicePanel struct {
	s *session

	devices   list.Model
	playlists list.Model
	tracks    *trackList
	title     string
	open      *models.Playlist // nil when no playlist is shown

	focus   deviceFocus
	input   textinput.Model
	mode    inputMode
	confirm *confirmation

	width, height int
}

func newDevicePanel(s *session) *devicePanel {
	in := textinput.New()
	in.CharLimit = 256

	return &devicePanel{
		s:         s,
		devices:   newList("Devices", deviceItems(nil, nil)),
		playlists: newList("Playlists", nil),
		tracks:    newTrackList("Select a playlist or press t for all tracks"),
		input:     in,
	}
}

func (p *devicePanel) Init() tea.Cmd {
	return tea.Batch(p.detect(), p.status())
}

func (p *devicePanel) detect() tea.Cmd {
	return p.s.load(MsgDevicesDetected, keyDetect, func(ctx context.Context) (any, error) {
		return p.s.api.Detect(ctx)
	})
}

func (p *devicePanel) status() tea.Cmd {
	return p.s.load(MsgStatus, keyStatus, func(ctx context.Context) (any, error) {
		return p.s.api.Status(ctx)
	})
}

// connect validates mountpoint before sending anything.
func (p *devicePanel) connect(mountpoint string) tea.Cmd {
	mountpoint = strings.TrimSpace(mountpoint)
	if mountpoint == "" {
		return notify(levelWarning, "Please select a device")
	}
	return p.s.mutate(MsgConnected, func(ctx context.Context) (any, error) {
		return p.s.api.Connect(ctx, mountpoint)
	})
}

func (p *devicePanel) disconnect() tea.Cmd {
	return p.s.mutate(MsgDisconnected, func(ctx context.Context) (any, error) {
		return nil, p.s.api.Disconnect(ctx)
	})
}

func (p *devicePanel) createPlaylist(name string) tea.Cmd {
	name = strings.TrimSpace(name)
	if name == "" {
		return notify(levelWarning, "Please enter a playlist name")
	}
	return p.s.mutate(MsgPlaylistCreated, func(ctx context.Context) (any, error) {
		created, err := p.s.api.CreatePlaylist(ctx, name)
		if err == nil && created != nil && created.Name == "" {
			created.Name = name
		}
		return created, err
	})
}

func (p *devicePanel) askDelete(pl models.Playlist) tea.Cmd {
	if pl.IsMaster {
		return notify(levelWarning, "The master playlist cannot be deleted")
	}
	p.confirm = &confirmation{
		prompt: fmt.Sprintf("Delete playlist %q?", pl.Name),
		onYes: func() tea.Cmd {
			return p.s.mutate(MsgPlaylistDeleted, func(ctx context.Context) (any, error) {
				return pl, p.s.api.DeletePlaylist(ctx, pl.ID)
			})
		},
	}
	return nil
}

func (p *devicePanel) openPlaylist(pl models.Playlist) tea.Cmd {
	p.title = pl.Name
	p.open = &pl
	return p.s.load(MsgDeviceTracks, keyDeviceTracks, func(ctx context.Context) (any, error) {
		return p.s.api.PlaylistTracks(ctx, pl.ID)
	})
}

func (p *devicePanel) allTracks() tea.Cmd {
	if !p.s.connected() {
		return notify(levelWarning, "Connect a device first")
	}
	p.title = "All tracks"
	p.open = nil
	return p.s.load(MsgDeviceTracks, keyDeviceTracks, func(ctx context.Context) (any, error) {
		return p.s.api.DeviceTracks(ctx)
	})
}

func (p *devicePanel) startInput(mode inputMode, placeholder string) tea.Cmd {
	p.mode = mode
	p.input.SetValue("")
	p.input.Placeholder = placeholder
	return p.input.Focus()
}

func (p *devicePanel) Capturing() bool {
	return p.mode != inputNone || p.confirm != nil
}

func (p *devicePanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		return p.handleMsg(msg)
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.MouseMsg:
		if p.focus == focusTracks || msg.X > p.width/2 {
			msg.Y -= p.tracksTop()
			if p.tracks.HandleMouse(msg) {
				p.focus = focusTracks
			}
		}
	}
	return nil
}

func (p *devicePanel) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgDevicesDetected:
		devices, _ := msg.data.([]models.Device)
		if msg.err != nil {
			p.s.logger.Warn("device detection failed", "err", msg.err)
		}
		p.devices.SetItems(deviceItems(devices, msg.err))
	case MsgStatus:
		if conn, ok := msg.data.(*models.Connection); ok && msg.err == nil && conn != nil && conn.Connected {
			p.s.connection = conn
			return p.s.refreshPlaylists()
		}
	case MsgConnected:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to connect"))
		}
		conn, _ := msg.data.(*models.Connection)
		if conn == nil {
			conn = &models.Connection{}
		}
		conn.Connected = true
		p.s.connection = conn
		p.focus = focusPlaylists
		return tea.Batch(notify(levelSuccess, "Device connected"), p.s.refreshPlaylists())
	case MsgDisconnected:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to disconnect"))
		}
		p.s.connection = nil
		p.s.playlists = nil
		p.s.invalidate(keyPlaylists)
		p.s.invalidate(keyDeviceTracks)
		p.playlists.SetItems(nil)
		p.tracks.SetTracks(nil)
		p.title, p.open = "", nil
		p.focus = focusDevices
		return notify(levelInfo, "Device disconnected")
	case MsgPlaylistsLoaded:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load playlists"))
		}
		items := make([]list.Item, len(p.s.playlists))
		for i, pl := range p.s.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		p.playlists.SetItems(items)
	case MsgPlaylistCreated:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to create playlist"))
		}
		name := ""
		if pl, ok := msg.data.(*models.Playlist); ok && pl != nil {
			name = pl.Name
		}
		return tea.Batch(notify(levelSuccess, fmt.Sprintf("Playlist %q created", name)), p.s.refreshPlaylists())
	case MsgPlaylistDeleted:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to delete playlist"))
		}
		if pl, ok := msg.data.(models.Playlist); ok && p.open != nil && p.open.ID == pl.ID {
			p.s.invalidate(keyDeviceTracks)
			p.tracks.SetTracks(nil)
			p.title, p.open = "", nil
		}
		return tea.Batch(notify(levelSuccess, "Playlist deleted"), p.s.refreshPlaylists())
	case MsgDeviceTracks:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load playlist"))
		}
		tracks, _ := msg.data.([]models.Track)
		p.tracks.SetTracks(tracks)
		p.focus = focusTracks
	case MsgBulkDone:
		// the open list may be the destination of a batch sent from the library
		switch {
		case msg.err != nil || p.title == "":
		case p.open != nil:
			return p.openPlaylist(*p.open)
		default:
			return p.allTracks()
		}
	}
	return nil
}

func (p *devicePanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.confirm != nil {
		cmd, done := handleConfirm(p.confirm, msg)
		if done {
			p.confirm = nil
		}
		return cmd
	}

	if p.mode != inputNone {
		switch msg.Type {
		case tea.KeyEsc:
			p.mode = inputNone
			p.input.Blur()
			return nil
		case tea.KeyEnter:
			value, mode := p.input.Value(), p.mode
			p.mode = inputNone
			p.input.Blur()
			if mode == inputMountpoint {
				if strings.TrimSpace(value) == "" {
					return notify(levelError, "Please enter a path")
				}
				return p.connect(value)
			}
			return p.createPlaylist(value)
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, keys.left):
		p.focus = max(p.focus-1, focusDevices)
		return nil
	case key.Matches(msg, keys.right):
		p.focus = min(p.focus+1, focusTracks)
		return nil
	case key.Matches(msg, keys.refresh):
		if p.s.connected() {
			return tea.Batch(p.detect(), p.s.refreshPlaylists())
		}
		return p.detect()
	case key.Matches(msg, keys.connect):
		if p.s.connected() {
			return p.disconnect()
		}
		return p.enterDevice()
	case key.Matches(msg, keys.manual):
		return p.startInput(inputMountpoint, "/media/ipod")
	case key.Matches(msg, keyAllTracks):
		return p.allTracks()
	case key.Matches(msg, keys.newList):
		if !p.s.connected() {
			return notify(levelWarning, "Connect a device first")
		}
		return p.startInput(inputPlaylistName, "Playlist name")
	case key.Matches(msg, keys.deleteKey):
		if pl, ok := p.selectedPlaylist(); ok {
			return p.askDelete(pl)
		}
		return nil
	}

	switch p.focus {
	case focusDevices:
		if key.Matches(msg, keys.enter) {
			return p.enterDevice()
		}
		var cmd tea.Cmd
		p.devices, cmd = p.devices.Update(msg)
		return cmd
	case focusPlaylists:
		if key.Matches(msg, keys.enter) {
			if pl, ok := p.selectedPlaylist(); ok {
				return p.openPlaylist(pl)
			}
			return nil
		}
		var cmd tea.Cmd
		p.playlists, cmd = p.playlists.Update(msg)
		return cmd
	default:
		p.tracks.HandleKey(msg)
	}
	return nil
}

// enterDevice acts on the highlighted picker row.
func (p *devicePanel) enterDevice() tea.Cmd {
	item, ok := p.devices.SelectedItem().(deviceItem)
	if !ok {
		return notify(levelWarning, "Please select a device")
	}
	switch item.kind {
	case deviceFailed:
		return p.detect()
	case deviceManual:
		return p.startInput(inputMountpoint, "/media/ipod")
	default:
		return p.connect(item.device.Mountpoint)
	}
}

func (p *devicePanel) selectedPlaylist() (models.Playlist, bool) {
	item, ok := p.playlists.SelectedItem().(playlistItem)
	if !ok {
		return models.Playlist{}, false
	}
	return item.playlist, true
}

func (p *devicePanel) SetSize(width, height int) {
	p.width, p.height = width, height
	side := max(width/4, 24)
	listHeight := max(height-4, 5)
	p.devices.SetSize(side, listHeight/2)
	p.playlists.SetSize(side, listHeight-listHeight/2)
	p.tracks.SetHeight(listHeight - 3)
}

func (p *devicePanel) tracksTop() int {
	return 2 + headerLines
}

func (p *devicePanel) View() string {
	var status string
	if p.s.connected() {
		status = styles.ok.Render("● " + p.s.deviceName())
		if mp := p.s.connection.Mountpoint; mp != "" && mp != p.s.deviceName() {
			status += styles.muted.Render("  " + mp)
		}
	} else {
		status = styles.muted.Render("○ No device connected")
	}

	side := max(p.width/4, 24)
	left := lipgloss.JoinVertical(lipgloss.Left,
		p.focused(focusDevices, p.devices.View()),
		p.focused(focusPlaylists, p.playlists.View()),
	)

	title := p.title
	if title == "" {
		title = "Tracks"
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		styles.title.UnsetMarginBottom().Render(title),
		p.tracks.View(p.width-side-4),
		p.tracks.Status(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(side).Render(left), "  ", right)

	footer := ""
	switch {
	case p.confirm != nil:
		footer = p.confirm.View()
	case p.mode != inputNone:
		footer = p.input.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, "", body, footer)
}

func (p *devicePanel) focused(f deviceFocus, s string) string {
	if p.focus == f {
		return s
	}
	return styles.muted.Render(s)
}

func (p *devicePanel) Help() []key.Binding {
	return []key.Binding{keys.enter, keys.connect, keys.manual, keys.refresh, keys.newList, keys.deleteKey, keyAllTracks, keys.left, keys.right}
}
