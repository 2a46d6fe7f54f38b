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
	"github.com/samber/lo"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
)

type libraryMode int

const (
	libraryAlbums libraryMode = iota
	libraryTracks
)

// selectionSource names the list a batch was built from, so only that selection is cleared.
type selectionSource int

const (
	sourceTracks selectionSource = iota
	sourceExpansion
)

// albumTracks is an expansion load.
type albumTracks struct {
	album  models.Album
	index  int
	action expandAction
	tracks []models.Track
}

// bulkOutcome is the completion of an add batch. album is the key of the
// expansion the selection came from, if any.
type bulkOutcome struct {
	result *models.BulkResult
	target string
	source selectionSource
	album  string
}

// libraryPanel browses the local catalog and sends selections to the device.
type libraryPanel struct {
	s *session

	mode      libraryMode
	albums    []models.Album
	cursor    int
	expanded  *expansion
	inside    bool // keys go to the expansion
	scrollTop int

	tracks *trackList
	sort   int
	query  string

	search   textinput.Model
	picker   list.Model
	picking  bool
	naming   bool
	name     textinput.Model
	pending  []models.TrackID
	source   selectionSource
	album    string
	scanning bool

	width, height int
}

func newLibraryPanel(s *session) *libraryPanel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search the library"
	search.CharLimit = 128

	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.CharLimit = 128

	return &libraryPanel{
		s:      s,
		tracks: newTrackList("No tracks found"),
		search: search,
		name:   name,
		picker: newList("Add to playlist", nil),
	}
}

func (p *libraryPanel) Init() tea.Cmd {
	return tea.Batch(p.loadAlbums(), p.loadTracks())
}

func (p *libraryPanel) loadAlbums() tea.Cmd {
	query := p.query
	return p.s.load(MsgLibraryAlbums, keyLibraryAlbums, func(ctx context.Context) (any, error) {
		return p.s.api.LibraryAlbums(ctx, query)
	})
}

func (p *libraryPanel) loadTracks() tea.Cmd {
	q := services.TrackQuery{PerPage: p.s.pageSize, Sort: services.SortFields[p.sort], Search: p.query}
	return p.s.load(MsgLibraryTracks, keyLibraryTracks, func(ctx context.Context) (any, error) {
		return p.s.api.LibraryTracks(ctx, q)
	})
}

// selectAlbum applies a click on the card at index.
func (p *libraryPanel) selectAlbum(index int) tea.Cmd {
	if index < 0 || index >= len(p.albums) {
		return nil
	}
	album := p.albums[index]
	action := planExpansion(p.expanded, gridColumns(p.width), index, album.Key())

	switch action {
	case expandClose:
		p.collapse()
		return nil
	case expandCollapseOpen:
		p.collapse()
	}

	q := services.TrackQuery{PerPage: p.s.pageSize, Album: album.Title()}
	return p.s.load(MsgAlbumTracks, keyAlbumExpansion, func(ctx context.Context) (any, error) {
		tracks, err := p.s.api.LibraryTracks(ctx, q)
		return albumTracks{album: album, index: index, action: action, tracks: tracks}, err
	})
}

func (p *libraryPanel) collapse() {
	p.expanded = nil
	p.inside = false
	p.s.invalidate(keyAlbumExpansion)
}

// openPicker starts an add-to-playlist flow for the active selection. The expansion's
// selection takes precedence over the tracks table.
func (p *libraryPanel) openPicker() tea.Cmd {
	if !p.s.connected() {
		return notify(levelWarning, "Connect a device first")
	}
	ids, source := p.activeSelection()
	if len(ids) == 0 {
		return notify(levelWarning, "No tracks selected")
	}
	if p.s.submitter.InFlight() {
		return notify(levelWarning, failure(shared.ErrBusy, ""))
	}

	items := lo.Map(models.UserPlaylists(p.s.playlists), func(pl models.Playlist, _ int) list.Item {
		return playlistItem{playlist: pl}
	})
	p.picker.SetItems(append(items, newPlaylistItem{}))
	p.picker.ResetSelected()
	p.pending, p.source, p.album = ids, source, p.expandedKey()
	p.picking = true
	return nil
}

func (p *libraryPanel) activeSelection() ([]models.TrackID, selectionSource) {
	if p.expanded != nil && !p.expanded.sel.Empty() {
		return p.expanded.sel.Ordered(), sourceExpansion
	}
	return p.tracks.SelectedIDs(), sourceTracks
}

// addToDevice sends the active selection to the device library.
func (p *libraryPanel) addToDevice() tea.Cmd {
	if !p.s.connected() {
		return notify(levelWarning, "Connect a device first")
	}
	ids, source := p.activeSelection()
	return p.submit(ids, nil, p.s.deviceName(), source, p.expandedKey())
}

func (p *libraryPanel) expandedKey() string {
	if p.expanded == nil {
		return ""
	}
	return p.expanded.album.Key()
}

func (p *libraryPanel) submit(ids []models.TrackID, playlist *models.Playlist, target string, source selectionSource, album string) tea.Cmd {
	if len(ids) == 0 {
		return notify(levelWarning, "No tracks selected")
	}
	var pid *models.PlaylistID
	if playlist != nil {
		id := playlist.ID
		pid = &id
		target = playlist.Name
	}
	req := models.NewBulkRequest(ids, pid)
	return p.s.mutate(MsgBulkDone, func(ctx context.Context) (any, error) {
		res, err := p.s.submitter.Submit(ctx, req)
		return bulkOutcome{result: res, target: target, source: source, album: album}, err
	})
}

// submitToNew creates the playlist, then adds the pending selection to it.
func (p *libraryPanel) submitToNew(name string) tea.Cmd {
	name = strings.TrimSpace(name)
	if name == "" {
		return notify(levelWarning, "Please enter a playlist name")
	}
	ids, source, album := p.pending, p.source, p.album
	return p.s.mutate(MsgBulkDone, func(ctx context.Context) (any, error) {
		created, err := p.s.api.CreatePlaylist(ctx, name)
		if err != nil {
			return bulkOutcome{target: name, source: source, album: album}, fmt.Errorf("failed to create playlist: %w", err)
		}
		pid := created.ID
		res, err := p.s.submitter.Submit(ctx, models.NewBulkRequest(ids, &pid))
		return bulkOutcome{result: res, target: name, source: source, album: album}, err
	})
}

func (p *libraryPanel) scan() tea.Cmd {
	if p.scanning {
		return nil
	}
	p.scanning = true
	return p.s.mutate(MsgScanStarted, func(ctx context.Context) (any, error) {
		return nil, p.s.api.Scan(ctx)
	})
}

func (p *libraryPanel) Capturing() bool {
	return p.search.Focused() || p.picking || p.naming
}

func (p *libraryPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		return p.handleMsg(msg)
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.MouseMsg:
		if p.mode == libraryTracks {
			msg.Y -= 4 + headerLines
			p.tracks.HandleMouse(msg)
		}
	}
	return nil
}

func (p *libraryPanel) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgLibraryAlbums:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load albums"))
		}
		p.albums, _ = msg.data.([]models.Album)
		p.cursor = min(p.cursor, max(len(p.albums)-1, 0))
		p.collapse()
	case MsgLibraryTracks:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load tracks"))
		}
		tracks, _ := msg.data.([]models.Track)
		p.tracks.SetTracks(tracks)
	case MsgAlbumTracks:
		if msg.err != nil {
			return notify(levelError, failure(msg.err, "Failed to load album"))
		}
		res, _ := msg.data.(albumTracks)
		if len(res.tracks) == 0 {
			return notify(levelWarning, "No tracks found for this album")
		}
		p.expanded = newExpansion(res.album, res.index, res.tracks)
		p.inside = true
	case MsgSearch:
		if msg.key != keyLibrarySearch {
			return nil
		}
		p.query, _ = msg.data.(string)
		p.collapse()
		return tea.Batch(p.loadAlbums(), p.loadTracks())
	case MsgBulkDone:
		out, _ := msg.data.(bulkOutcome)
		if msg.err != nil {
			return tea.Batch(notify(levelError, failure(msg.err, "Failed to add tracks")), p.s.refreshPlaylists())
		}
		if out.result == nil {
			out.result = &models.BulkResult{}
		}
		switch out.source {
		case sourceExpansion:
			if p.expanded != nil && p.expanded.album.Key() == out.album {
				p.expanded.sel.Clear()
			}
		default:
			p.tracks.Selection().Clear()
		}
		l := levelSuccess
		if out.result.Errors > 0 {
			l = levelWarning
		}
		return tea.Batch(notify(l, out.result.Summary(out.target)), p.s.refreshPlaylists())
	case MsgScanStarted:
		p.scanning = false
		if msg.err != nil {
			return notify(levelError, "Scan failed: "+failure(msg.err, "Unknown error"))
		}
		return notify(levelInfo, "Scan started")
	case MsgUploadDone:
		if res, ok := msg.data.(*models.UploadResult); ok && res != nil && len(res.Added) > 0 {
			return tea.Batch(p.loadAlbums(), p.loadTracks())
		}
	}
	return nil
}

func (p *libraryPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case p.naming:
		return p.handleNaming(msg)
	case p.picking:
		return p.handlePicker(msg)
	case p.search.Focused():
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			p.search.Blur()
			return nil
		}
		before := p.search.Value()
		var cmd tea.Cmd
		p.search, cmd = p.search.Update(msg)
		if after := strings.TrimSpace(p.search.Value()); after != strings.TrimSpace(before) {
			return tea.Batch(cmd, p.s.debounced(keyLibrarySearch, after))
		}
		return cmd
	}

	switch {
	case key.Matches(msg, keys.view):
		if p.mode == libraryAlbums {
			p.mode = libraryTracks
		} else {
			p.mode = libraryAlbums
		}
		return nil
	case key.Matches(msg, keys.search):
		return p.search.Focus()
	case key.Matches(msg, keys.scan):
		return p.scan()
	case key.Matches(msg, keys.toList):
		return p.openPicker()
	case key.Matches(msg, keys.toDevice):
		return p.addToDevice()
	case key.Matches(msg, keys.refresh):
		return tea.Batch(p.loadAlbums(), p.loadTracks())
	}

	if p.mode == libraryTracks {
		if key.Matches(msg, keys.sort) {
			p.sort = (p.sort + 1) % len(services.SortFields)
			return p.loadTracks()
		}
		if key.Matches(msg, keys.selectAll) {
			p.tracks.Selection().SelectAll()
			return nil
		}
		p.tracks.HandleKey(msg)
		return nil
	}

	if p.inside && p.expanded != nil {
		switch {
		case key.Matches(msg, keys.back):
			p.inside = false
			return nil
		case key.Matches(msg, keys.enter):
			return p.selectAlbum(p.expanded.index)
		}
		p.expanded.HandleKey(msg)
		return nil
	}

	cols := gridColumns(p.width)
	switch {
	case key.Matches(msg, keys.left):
		p.cursor = max(p.cursor-1, 0)
	case key.Matches(msg, keys.right):
		p.cursor = min(p.cursor+1, max(len(p.albums)-1, 0))
	case key.Matches(msg, keys.up):
		if p.cursor-cols >= 0 {
			p.cursor -= cols
		}
	case key.Matches(msg, keys.down):
		if p.expanded != nil && gridRow(p.cursor, cols) == gridRow(p.expanded.index, cols) {
			p.inside = true
		} else if p.cursor+cols < len(p.albums) {
			p.cursor += cols
		}
	case key.Matches(msg, keys.enter), key.Matches(msg, keys.pick):
		return p.selectAlbum(p.cursor)
	case key.Matches(msg, keys.back):
		if p.expanded != nil {
			p.collapse()
		}
	}
	return nil
}

func (p *libraryPanel) handlePicker(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.back):
		p.picking = false
		return nil
	case key.Matches(msg, keys.enter):
		p.picking = false
		switch item := p.picker.SelectedItem().(type) {
		case newPlaylistItem:
			p.naming = true
			p.name.SetValue("")
			return p.name.Focus()
		case playlistItem:
			return p.submit(p.pending, &item.playlist, "", p.source, p.album)
		}
		return nil
	}
	var cmd tea.Cmd
	p.picker, cmd = p.picker.Update(msg)
	return cmd
}

func (p *libraryPanel) handleNaming(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		p.naming = false
		p.name.Blur()
		return nil
	case tea.KeyEnter:
		p.naming = false
		p.name.Blur()
		return p.submitToNew(p.name.Value())
	}
	var cmd tea.Cmd
	p.name, cmd = p.name.Update(msg)
	return cmd
}

func (p *libraryPanel) SetSize(width, height int) {
	p.width, p.height = width, height
	p.tracks.SetHeight(max(height-7, 5))
	p.picker.SetSize(min(width, 50), max(height-6, 6))
}

func (p *libraryPanel) View() string {
	modes := []string{styles.tab.Render("Albums"), styles.tab.Render("Tracks")}
	modes[p.mode] = styles.tabOn.Render([]string{"Albums", "Tracks"}[p.mode])

	info := fmt.Sprintf("%d albums • %d tracks", len(p.albums), p.tracks.Len())
	if p.mode == libraryTracks {
		info += " • sorted by " + string(services.SortFields[p.sort])
	}
	if p.scanning {
		info += " • Scanning..."
	}

	search := styles.muted.Render("/ to search")
	if p.search.Focused() || p.query != "" {
		search = p.search.View()
	}

	var body string
	switch {
	case p.naming:
		body = lipgloss.JoinVertical(lipgloss.Left, styles.title.Render("New playlist"), p.name.View())
	case p.picking:
		body = p.picker.View()
	case p.mode == libraryTracks:
		body = lipgloss.JoinVertical(lipgloss.Left, p.tracks.View(p.width), p.tracks.Status())
	default:
		body = p.gridView(max(p.height-5, 5))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, modes...),
		styles.muted.Render(info),
		search,
		"",
		body,
	)
}

// gridView renders the album cards row by row with the expansion inserted after the row
// holding the expanded album, then windows the result around the cursor.
func (p *libraryPanel) gridView(height int) string {
	if len(p.albums) == 0 {
		return styles.muted.Render("No albums in the library")
	}

	cols := gridColumns(p.width)
	var lines []string
	cursorLine := 0

	for start := 0; start < len(p.albums); start += cols {
		end := min(start+cols, len(p.albums))
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cards = append(cards, p.card(i))
		}
		if gridRow(p.cursor, cols) == gridRow(start, cols) {
			cursorLine = len(lines)
		}
		lines = append(lines, strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, cards...), "\n")...)

		if p.expanded != nil && gridRow(p.expanded.index, cols) == gridRow(start, cols) {
			if p.inside {
				cursorLine = len(lines)
			}
			lines = append(lines, strings.Split(p.expanded.View(p.width, p.inside), "\n")...)
		}
	}

	if cursorLine < p.scrollTop {
		p.scrollTop = cursorLine
	}
	if cursorLine+4 > p.scrollTop+height {
		p.scrollTop = cursorLine + 4 - height
	}
	p.scrollTop = max(0, min(p.scrollTop, max(len(lines)-height, 0)))

	end := min(p.scrollTop+height, len(lines))
	return strings.Join(lines[p.scrollTop:end], "\n")
}

func (p *libraryPanel) card(i int) string {
	a := p.albums[i]
	w := cardWidth - 2
	title := shared.Truncate(a.Title(), w-2)
	artist := shared.Truncate(a.Artist, w-2)
	count := fmt.Sprintf("%d %s", a.TrackCount, pluralize(a.TrackCount, "track", "tracks"))

	style := lipgloss.NewStyle().Width(w).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3C3C3C"))
	switch {
	case i == p.cursor && !p.inside:
		style = style.BorderForeground(styles.accent)
	case p.expanded != nil && p.expanded.index == i:
		style = style.BorderForeground(lipgloss.Color("#04B575"))
	}
	return style.Render(styles.ok.Render(title) + "\n" + artist + "\n" + styles.muted.Render(count))
}

func (p *libraryPanel) Help() []key.Binding {
	if p.mode == libraryTracks {
		return []key.Binding{keys.pick, keys.toggle, keys.rangeDown, keys.selectAll, keys.sort, keys.toList, keys.toDevice, keys.search, keys.scan, keys.view}
	}
	return []key.Binding{keys.enter, keys.pick, keys.toggle, keys.toList, keys.toDevice, keys.search, keys.scan, keys.view, keys.back}
}
