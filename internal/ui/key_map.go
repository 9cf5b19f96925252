package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	search   key.Binding
	provider key.Binding
	pane     key.Binding
	enter    key.Binding
	enqueue  key.Binding
	remove   key.Binding
	toggle   key.Binding
	next     key.Binding
	previous key.Binding
	forward  key.Binding
	rewind   key.Binding
	louder   key.Binding
	quieter  key.Binding
	favorite key.Binding
	open     key.Binding
	back     key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		provider: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "provider")),
		pane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "results/queue/favorites")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		enqueue:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to queue")),
		remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5s")),
		rewind:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5s")),
		louder:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		quieter:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.enter, k.toggle, k.favorite, k.pane, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.enqueue, k.remove},
		{k.toggle, k.next, k.previous, k.forward, k.rewind},
		{k.search, k.provider, k.pane, k.back},
		{k.louder, k.quieter, k.favorite, k.open},
		{k.help, k.quit},
	}
}
