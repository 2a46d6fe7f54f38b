package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// browserView is one of the device browser's sections.
type browserView int

const (
	viewSongs browserView = iota
	viewAlbums
	viewArtists
	viewGenres
	viewPlaylists
)

var browserViews = []browserView{viewSongs, viewAlbums, viewArtists, viewGenres, viewPlaylists}

func (v browserView) String() string {
	switch v {
	case viewAlbums:
		return "Albums"
	case viewArtists:
		return "Artists"
	case viewGenres:
		return "Genres"
	case viewPlaylists:
		return "Playlists"
	default:
		return "Songs"
	}
}

// browserHeader is the device summary shown above every view. Either half may be missing.
type browserHeader struct {
	storage *models.Storage
	info    *models.DeviceInfo
}

// browserTracks is a songs table load; drill names the album/artist/genre/playlist it came from.
type browserTracks struct {
	tracks []models.Track
	drill  string
}

// browserPanel is the full-screen view of the connected device.
type browserPanel struct {
	s *session

	view     browserView
	header   browserHeader
	meter    progress.Model
	all      []models.Track
	songs    *trackList
	category list.Model
	drill    string
	query    string

	search  textinput.Model
	confirm *confirmation

	width, height int
}

func newBrowserPanel(s *session) *browserPanel {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "Filter by title, artist or album"
	in.CharLimit = 128

	meter := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	meter.Width = 20

	return &browserPanel{
		s:        s,
		songs:    newTrackList("No tracks on this device"),
		category: newList("", nil),
		search:   in,
		meter:    meter,
	}
}

func (p *browserPanel) Init() tea.Cmd {
	return nil
}

// Open resets the browser to the songs view and loads the device.
func (p *browserPanel) Open() tea.Cmd {
	p.view = viewSongs
	p.drill = ""
	p.query = ""
	p.search.SetValue("")
	p.search.Blur()
	p.confirm = nil
	return tea.Batch(p.loadHeader(), p.loadSongs())
}

// Close drops everything the browser still has in flight.
func (p *browserPanel) Close() {
	p.s.invalidate(keyBrowserHeader)
	p.s.invalidate(keyBrowserList)
	p.s.invalidate(keyBrowserSearch)
	p.search.Blur()
	p.confirm = nil
}

func (p *browserPanel) loadHeader() tea.Cmd {
	return p.s.load(MsgBrowserHeader, keyBrowserHeader, func(ctx context.Context) (any, error) {
		var h browserHeader
		storage, serr := p.s.api.Storage(ctx)
		if serr == nil {
			h.storage = storage
		}
		info, ierr := p.s.api.DeviceInfo(ctx)
		if ierr == nil {
			h.info = info
		}
		if serr != nil && ierr != nil {
			return h, serr
		}
		return h, nil
	})
}

func (p *browserPanel) loadSongs() tea.Cmd {
	return p.loadTracks("", func(ctx context.Context) ([]models.Track, error) {
		return p.s.api.DeviceTracks(ctx)
	})
}

func (p *browserPanel) loadTracks(drill string, fetch func(ctx context.Context) ([]models.Track, error)) tea.Cmd {
	return p.s.load(MsgBrowserTracks, keyBrowserList, func(ctx context.Context) (any, error) {
		tracks, err := fetch(ctx)
		return browserTracks{tracks: tracks, drill: drill}, err
	})
}

// switchView loads the section v. Every section shares one sequencer key so a slow
// response for a section the user already left is dropped.
func (p *browserPanel) switchView(v browserView) tea.Cmd {
	p.view = v
	p.drill = ""
	switch v {
	case viewAlbums:
		p.category.Title = "Albums"
		return p.s.load(MsgBrowserAlbums, keyBrowserList, func(ctx context.Context) (any, error) {
			return p.s.api.DeviceAlbums(ctx)
		})
	case viewArtists:
		p.category.Title = "Artists"
		return p.s.load(MsgBrowserArtists, keyBrowserList, func(ctx context.Context) (any, error) {
			return p.s.api.DeviceArtists(ctx)
		})
	case viewGenres:
		p.category.Title = "Genres"
		return p.s.load(MsgBrowserGenres, keyBrowserList, func(ctx context.Context) (any, error) {
			return p.s.api.DeviceGenres(ctx)
		})
	case viewPlaylists:
		p.category.Title = "Playlists"
		return p.s.load(MsgBrowserPlaylists, keyBrowserList, func(ctx context.Context) (any, error) {
			return p.s.api.Playlists(ctx)
		})
	default:
		return p.loadSongs()
	}
}

// drillInto shows the tracks of the highlighted category row in the songs table.
func (p *browserPanel) drillInto(item list.Item) tea.Cmd {
	switch it := item.(type) {
	case albumItem:
		return p.loadTracks(it.album.Title(), func(ctx context.Context) ([]models.Track, error) {
			return p.s.api.DeviceAlbumTracks(ctx, it.album.Title(), it.album.Artist)
		})
	case artistItem:
		return p.loadTracks(it.artist.Name, func(ctx context.Context) ([]models.Track, error) {
			tracks, err := p.s.api.DeviceTracks(ctx)
			return lo.Filter(tracks, func(t models.Track, _ int) bool { return t.Artist == it.artist.Name }), err
		})
	case genreItem:
		return p.loadTracks(it.genre.Name, func(ctx context.Context) ([]models.Track, error) {
			tracks, err := p.s.api.DeviceTracks(ctx)
			return lo.Filter(tracks, func(t models.Track, _ int) bool { return t.Genre == it.genre.Name }), err
		})
	case playlistItem:
		return p.loadTracks(it.playlist.Name, func(ctx context.Context) ([]models.Track, error) {
			return p.s.api.PlaylistTracks(ctx, it.playlist.ID)
		})
	}
	return nil
}

func (p *browserPanel) askRemove() tea.Cmd {
	ids := p.songs.SelectedIDs()
	if len(ids) == 0 {
		return notify(levelWarning, "No tracks selected")
	}
	if p.s.submitter.InFlight() {
		return notify(levelWarning, failure(shared.ErrBusy, ""))
	}
	p.confirm = &confirmation{
		prompt: fmt.Sprintf("Remove %d %s from the device?", len(ids), pluralize(len(ids), "track", "tracks")),
		onYes: func() tea.Cmd {
			return p.s.mutate(MsgRemoveDone, func(ctx context.Context) (any, error) {
				return p.s.submitter.Remove(ctx, ids)
			})
		},
	}
	return nil
}

func (p *browserPanel) export() tea.Cmd {
	return p.s.mutate(MsgExportStarted, func(ctx context.Context) (any, error) {
		return nil, p.s.api.Export(ctx)
	})
}

// Back handles esc: closes the search, then leaves a drill-down. It reports false when there
// was nothing to go back from, so the caller can leave device mode.
func (p *browserPanel) Back() bool {
	switch {
	case p.confirm != nil:
		p.confirm = nil
	case p.search.Focused():
		p.search.Blur()
	case p.drill != "":
		p.drill = ""
		p.s.invalidate(keyBrowserList)
		if p.view == viewSongs {
			p.songs.SetTracks(filterTracks(p.all, p.query))
		}
	default:
		return false
	}
	return true
}

func (p *browserPanel) Capturing() bool {
	return p.search.Focused() || p.confirm != nil
}

func (p *browserPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		return p.handleMsg(msg)
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.MouseMsg:
		if p.showingSongs() {
			msg.Y -= p.tableTop()
			p.songs.HandleMouse(msg)
		}
	}
	return nil
}

func (p *browserPanel) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgBrowserHeader:
		if h, ok := msg.data.(browserHeader); ok {
			p.header = h
		}
	case MsgBrowserTracks:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load tracks"))
		}
		res, _ := msg.data.(browserTracks)
		p.drill = res.drill
		if res.drill == "" {
			p.all = res.tracks
			p.songs.SetTracks(filterTracks(p.all, p.query))
		} else {
			p.songs.SetTracks(res.tracks)
		}
	case MsgBrowserAlbums, MsgBrowserArtists, MsgBrowserGenres, MsgBrowserPlaylists:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load "+strings.ToLower(p.view.String())))
		}
		p.category.SetItems(categoryItems(msg.data))
		p.category.ResetSelected()
	case MsgSearch:
		if msg.key != keyBrowserSearch {
			return nil
		}
		p.query, _ = msg.data.(string)
		if p.view == viewSongs && p.drill == "" {
			p.songs.SetTracks(filterTracks(p.all, p.query))
		}
	case MsgRemoveDone:
		if msg.err != nil {
			return notify(levelError, "Failed to remove tracks: "+failure(msg.err, "Unknown error"))
		}
		removed := 0
		if res, ok := msg.data.(*models.BulkResult); ok && res != nil {
			removed = res.Removed
		}
		p.songs.Selection().Clear()
		return tea.Batch(
			notify(levelSuccess, fmt.Sprintf("Removed %d %s", removed, pluralize(removed, "track", "tracks"))),
			p.reload(),
			p.loadHeader(),
			p.s.refreshPlaylists(),
		)
	case MsgExportStarted:
		if msg.err != nil {
			return notify(levelError, "Export failed: "+failure(msg.err, "Unknown error"))
		}
		return notify(levelInfo, "Export started")
	}
	return nil
}

// reload fetches the songs table again from wherever it currently comes from.
func (p *browserPanel) reload() tea.Cmd {
	if p.drill != "" {
		if item := p.category.SelectedItem(); item != nil {
			return p.drillInto(item)
		}
	}
	if p.view == viewSongs {
		return p.loadSongs()
	}
	return p.switchView(p.view)
}

func (p *browserPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.confirm != nil {
		cmd, done := handleConfirm(p.confirm, msg)
		if done {
			p.confirm = nil
		}
		return cmd
	}

	if p.search.Focused() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			p.search.Blur()
			return nil
		}
		before := p.search.Value()
		var cmd tea.Cmd
		p.search, cmd = p.search.Update(msg)
		if after := strings.TrimSpace(p.search.Value()); after != strings.TrimSpace(before) {
			return tea.Batch(cmd, p.s.debounced(keyBrowserSearch, after))
		}
		return cmd
	}

	switch {
	case key.Matches(msg, keys.view):
		next := browserViews[(int(p.view)+1)%len(browserViews)]
		return p.switchView(next)
	case key.Matches(msg, keys.search):
		if p.view != viewSongs {
			p.view = viewSongs
			p.drill = ""
			p.songs.SetTracks(filterTracks(p.all, p.query))
		}
		return p.search.Focus()
	case key.Matches(msg, keys.refresh):
		return tea.Batch(p.loadHeader(), p.reload())
	case key.Matches(msg, keys.export):
		return p.export()
	}

	if p.showingSongs() {
		switch {
		case key.Matches(msg, keys.selectAll):
			if p.songs.Selection().AllSelected() {
				p.songs.Selection().Clear()
			} else {
				p.songs.Selection().SelectAll()
			}
			return nil
		case key.Matches(msg, keys.remove):
			return p.askRemove()
		}
		p.songs.HandleKey(msg)
		return nil
	}

	if key.Matches(msg, keys.enter) {
		if item := p.category.SelectedItem(); item != nil {
			return p.drillInto(item)
		}
		return nil
	}
	var cmd tea.Cmd
	p.category, cmd = p.category.Update(msg)
	return cmd
}

func (p *browserPanel) showingSongs() bool {
	return p.view == viewSongs || p.drill != ""
}

func (p *browserPanel) SetSize(width, height int) {
	p.width, p.height = width, height
	p.category.SetSize(width, max(height-6, 5))
	p.songs.SetHeight(max(height-8, 5))
}

// tableTop is the number of lines above the first songs row.
func (p *browserPanel) tableTop() int {
	return 5 + headerLines
}

func (p *browserPanel) View() string {
	tabs := lo.Map(browserViews, func(v browserView, _ int) string {
		if v == p.view {
			return styles.tabOn.Render(v.String())
		}
		return styles.tab.Render(v.String())
	})

	crumb := p.view.String()
	if p.drill != "" {
		crumb += " › " + p.drill
	}

	var body string
	if p.showingSongs() {
		body = lipgloss.JoinVertical(lipgloss.Left, p.songs.View(p.width), p.songs.Status())
	} else {
		body = p.category.View()
	}

	search := styles.muted.Render("/ to filter")
	if p.search.Focused() || p.query != "" {
		search = p.search.View()
	}

	footer := search
	if p.confirm != nil {
		footer = p.confirm.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		p.headerView(),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		styles.muted.Render(crumb),
		footer,
		"",
		body,
	)
}

func (p *browserPanel) headerView() string {
	name := p.s.deviceName()
	if name == "" {
		name = "Device"
	}
	parts := []string{styles.title.UnsetMarginBottom().Render(name)}
	if p.header.info != nil {
		if tag := p.header.info.GenerationTag(); tag != "" {
			parts = append(parts, styles.tabOn.Render(tag))
		}
	}
	if st := p.header.storage; st != nil {
		parts = append(parts, p.meter.ViewAs(min(max(st.PercentUsed/100, 0), 1)), styles.muted.Render(st.String()))
	}
	return strings.Join(parts, "  ")
}

func (p *browserPanel) Help() []key.Binding {
	if p.showingSongs() {
		return []key.Binding{keys.pick, keys.toggle, keys.rangeDown, keys.selectAll, keys.remove, keys.search, keys.view, keys.export, keys.back}
	}
	return []key.Binding{keys.enter, keys.view, keys.refresh, keys.export, keys.back}
}

// filterTracks keeps tracks whose title, artist or album contains query, case-insensitively.
func filterTracks(tracks []models.Track, query string) []models.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tracks
	}
	return lo.Filter(tracks, func(t models.Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Artist), query) ||
			strings.Contains(strings.ToLower(t.Album), query)
	})
}

func categoryItems(data any) []list.Item {
	switch rows := data.(type) {
	case []models.Album:
		return lo.Map(rows, func(a models.Album, _ int) list.Item { return albumItem{album: a} })
	case []models.Artist:
		return lo.Map(rows, func(a models.Artist, _ int) list.Item { return artistItem{artist: a} })
	case []models.Genre:
		return lo.Map(rows, func(g models.Genre, _ int) list.Item { return genreItem{genre: g} })
	case []models.Playlist:
		return lo.Map(rows, func(pl models.Playlist, _ int) list.Item { return playlistItem{playlist: pl} })
	}
	return nil
}
