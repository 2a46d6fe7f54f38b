package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/tasks"
)

// Tab is one of the top-level panels.
type Tab int

const (
	TabDevice Tab = iota
	TabLibrary
	TabUpload
)

var tabNames = []string{"1 Device", "2 Library", "3 Upload"}

// chromeLines is the number of lines the root draws above a panel.
const chromeLines = 2

// Model is the root of the TUI. It owns the session and routes messages to the panels.
type Model struct {
	s *session

	tab        Tab
	deviceMode bool

	device  *devicePanel
	library *libraryPanel
	upload  *uploadPanel
	browser *browserPanel

	toast   toast
	spinner spinner.Model
	help    help.Model

	width  int
	height int
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	s := newSession(ctx, opts)

	queue := opts.Queue
	if queue == nil {
		queue = tasks.NewUploadQueue(opts.Extensions)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.cursor

	return &Model{
		s:       s,
		device:  newDevicePanel(s),
		library: newLibraryPanel(s),
		upload:  newUploadPanel(s, queue),
		browser: newBrowserPanel(s),
		spinner: sp,
		help:    help.New(),
	}
}

// Init detects devices and loads the library.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.device.Init(), m.library.Init(), m.upload.Init(), m.browser.Init(), m.spinner.Tick)
}

func (m *Model) active() panel {
	if m.deviceMode {
		return m.browser
	}
	switch m.tab {
	case TabLibrary:
		return m.library
	case TabUpload:
		return m.upload
	default:
		return m.device
	}
}

func (m *Model) panels() []panel {
	return []panel{m.device, m.library, m.upload, m.browser}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		for _, p := range m.panels() {
			p.SetSize(msg.Width, max(msg.Height-chromeLines-3, 5))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		msg.Y -= chromeLines
		return m, m.active().Update(msg)

	case Msg:
		return m, m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	if !m.s.settle(msg) {
		return nil
	}

	switch msg.kind {
	case MsgToast:
		t, _ := msg.data.(toast)
		m.toast = t
		m.s.logger.Debug("notification", "level", t.level, "text", t.text)
		return expireToast(m.s.seq.Next(keyToast))
	case MsgToastExpired:
		m.toast = toast{}
		return nil
	case MsgPlaylistsLoaded:
		if playlists, ok := msg.data.([]models.Playlist); ok && msg.err == nil {
			m.s.playlists = playlists
		}
	case MsgDisconnected:
		if msg.err == nil && m.deviceMode {
			m.leaveDeviceMode()
		}
	}

	var cmds []tea.Cmd
	for _, p := range m.panels() {
		cmds = append(cmds, p.Update(msg))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	active := m.active()
	if active.Capturing() {
		return active.Update(msg)
	}

	switch {
	case key.Matches(msg, keys.quit):
		return tea.Quit
	case key.Matches(msg, keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}

	if m.deviceMode {
		if key.Matches(msg, keys.back) && !m.browser.Back() {
			m.leaveDeviceMode()
			return nil
		}
		if key.Matches(msg, keys.back) {
			return nil
		}
		return m.browser.Update(msg)
	}

	switch {
	case key.Matches(msg, keys.tabDevice):
		m.tab = TabDevice
	case key.Matches(msg, keys.tabLib):
		m.tab = TabLibrary
	case key.Matches(msg, keys.tabUpload):
		m.tab = TabUpload
	case key.Matches(msg, keys.nextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
	case key.Matches(msg, keys.ipodMode):
		return m.enterDeviceMode()
	default:
		return active.Update(msg)
	}
	return nil
}

func (m *Model) enterDeviceMode() tea.Cmd {
	if !m.s.connected() {
		return notify(levelWarning, "Connect a device first")
	}
	m.deviceMode = true
	return m.browser.Open()
}

func (m *Model) leaveDeviceMode() {
	m.deviceMode = false
	m.browser.Close()
}

// View renders the tab bar, the active panel, the notification line and contextual help.
func (m *Model) View() string {
	var top string
	if m.deviceMode {
		top = styles.tabOn.Render("Device mode") + styles.muted.Render("  esc to return")
	} else {
		tabs := make([]string, len(tabNames))
		for i, name := range tabNames {
			if Tab(i) == m.tab {
				tabs[i] = styles.tabOn.Render(name)
			} else {
				tabs[i] = styles.tab.Render(name)
			}
		}
		top = lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	}
	if m.s.inFlight() {
		top += " " + m.spinner.View()
	}

	active := m.active()
	body := active.View()
	if m.height > 0 {
		body = lipgloss.NewStyle().MaxHeight(max(m.height-chromeLines-3, 5)).Render(body)
	}

	helpView := m.help.ShortHelpView(append(active.Help(), keys.ShortHelp()...))
	if m.help.ShowAll {
		helpView = m.help.FullHelpView(keys.FullHelp())
	}

	return strings.Join([]string{top, "", body, "", m.toast.View(), styles.help.Render(helpView)}, "\n")
}

// Tab reports the active tab.
func (m *Model) Tab() Tab {
	return m.tab
}

// DeviceMode reports whether the device browser is open.
func (m *Model) DeviceMode() bool {
	return m.deviceMode
}
