package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	left      key.Binding
	right     key.Binding
	pageUp    key.Binding
	pageDown  key.Binding
	enter     key.Binding
	back      key.Binding
	yes       key.Binding
	no        key.Binding
	quit      key.Binding
	help      key.Binding
	tabDevice key.Binding
	tabLib    key.Binding
	tabUpload key.Binding
	nextTab   key.Binding
	ipodMode  key.Binding

	// track tables
	pick      key.Binding
	toggle    key.Binding
	rangeUp   key.Binding
	rangeDown key.Binding
	selectAll key.Binding
	clear     key.Binding
	search    key.Binding

	// panel actions
	refresh   key.Binding
	connect   key.Binding
	manual    key.Binding
	newList   key.Binding
	deleteKey key.Binding
	toDevice  key.Binding
	toList    key.Binding
	remove    key.Binding
	sort      key.Binding
	scan      key.Binding
	export    key.Binding
	view      key.Binding
	addPath   key.Binding
	start     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		pageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		pageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		tabDevice: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "device")),
		tabLib:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "library")),
		tabUpload: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "upload")),
		nextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		ipodMode:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "device mode")),

		pick:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
		toggle:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle")),
		rangeUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("shift+↑", "extend")),
		rangeDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("shift+↓", "extend")),
		selectAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear selection")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),

		refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		connect:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect/disconnect")),
		manual:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual path")),
		newList:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new playlist")),
		deleteKey: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete playlist")),
		toDevice:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add to device")),
		toList:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "add to playlist")),
		remove:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		scan:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "scan library")),
		export:    key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export")),
		view:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "switch view")),
		addPath:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "add files")),
		start:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tabDevice, k.tabLib, k.tabUpload, k.ipodMode, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.pageUp, k.pageDown, k.enter, k.back},
		{k.pick, k.toggle, k.rangeUp, k.rangeDown, k.selectAll, k.clear},
		{k.tabDevice, k.tabLib, k.tabUpload, k.ipodMode, k.help, k.quit},
	}
}

var keys = newKeyMap()
