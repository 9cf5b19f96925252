package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Pane is the list shown under the player header.
type Pane int

const (
	ResultsPane Pane = iota
	QueuePane
	FavoritesPane
)

func (p Pane) String() string {
	switch p {
	case QueuePane:
		return "queue"
	case FavoritesPane:
		return "favorites"
	default:
		return "results"
	}
}

// Searcher runs provider searches for the TUI.
type Searcher interface {
	Providers() []models.Provider
	Search(ctx context.Context, p models.Provider, query string, limit int) ([]models.Track, error)
}

const (
	// DefaultTick is how often the player clock is advanced.
	DefaultTick = 250 * time.Millisecond

	barRow      = 2
	barReserved = 18
	minBarWidth = 10
	chromeRows  = 9
	seekStep    = 5 * time.Second
	volumeStep  = 0.1
)

var (
	errNoStore = errors.New("favorites are not configured")

	openBrowser = shared.OpenBrowser
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	search   Searcher
	store    favorites.Store
	player   *playback.Player
	seek     *playback.SeekController
	logger   *log.Logger
	tick     time.Duration
	lastTick time.Time

	providers []models.Provider
	provider  int
	pane      Pane
	input     textinput.Model
	loading   bool
	results   list.Model
	queue     list.Model
	favs      list.Model
	queueIdx  int
	queueLen  int
	dirty     bool

	width     int
	height    int
	status    string
	statusErr bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model driving player.
//
// store may be nil, in which case favorites are disabled. A non-positive tick uses [DefaultTick].
func NewModel(ctx context.Context, search Searcher, store favorites.Store, player *playback.Player, logger *log.Logger, tick time.Duration) *Model {
	if logger == nil {
		logger = log.Default()
	}
	if tick <= 0 {
		tick = DefaultTick
	}

	var providers []models.Provider
	if search != nil {
		providers = search.Providers()
	}
	if len(providers) == 0 {
		providers = models.Providers
	}

	input := textinput.New()
	input.Placeholder = "Search tracks"
	input.Prompt = "/ "
	input.CharLimit = 200

	return &Model{
		ctx:       ctx,
		search:    search,
		store:     store,
		player:    player,
		seek:      playback.NewSeekController(player),
		logger:    logger.WithPrefix("tui"),
		tick:      tick,
		providers: providers,
		input:     input,
		results:   newTrackList("Results"),
		queue:     newTrackList("Queue"),
		favs:      newTrackList("Favorites"),
		queueIdx:  -1,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Run starts the TUI on the alternate screen with mouse motion reporting so the progress bar can be dragged.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Init starts the player clock and loads favorites for every provider.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.nextTick(), m.loadFavorites())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updatePane(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		now := msg.data.(time.Time)
		if !m.lastTick.IsZero() && now.After(m.lastTick) {
			m.player.Advance(now.Sub(m.lastTick))
		}
		m.lastTick = now
		m.syncQueue()
		return m, m.nextTick()

	case MsgSearchDone:
		r := msg.data.(searchResult)
		m.loading = false
		if r.err != nil {
			m.setError(r.err)
			return m, nil
		}
		m.results.Title = fmt.Sprintf("%s results for %q", r.provider, r.query)
		cmd := m.results.SetItems(toItems(r.tracks, -1))
		m.results.Select(0)
		m.pane = ResultsPane
		m.setStatus(fmt.Sprintf("%d results", len(r.tracks)))
		return m, cmd

	case MsgFavoritesLoaded:
		r := msg.data.(favoritesResult)
		if r.err != nil {
			m.setError(r.err)
			return m, nil
		}
		m.favs.Title = favoritesTitle(r.groups)
		return m, m.favs.SetItems(toItems(favorites.Flatten(r.groups), -1))

	case MsgFavoriteToggled:
		r := msg.data.(toggleResult)
		if r.err != nil {
			m.setError(r.err)
			return m, nil
		}
		if r.track.IsFavorited {
			m.setStatus("Added to favorites: " + r.track.Title)
		} else {
			m.setStatus("Removed from favorites: " + r.track.Title)
		}
		return m, m.applyFavorite(r.track)

	case MsgBrowserOpened:
		if err, ok := msg.data.(error); ok && err != nil {
			m.setError(err)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		return m, nil
	case "enter":
		m.input.Blur()
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.loading = true
		m.setStatus(fmt.Sprintf("Searching %s for %q", m.currentProvider(), query))
		return m, m.runSearch(m.currentProvider(), query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.seek.Cancel()
		m.setStatus("")
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.search):
		cmd = m.input.Focus()
	case key.Matches(msg, m.keys.provider):
		m.provider = (m.provider + 1) % len(m.providers)
		m.setStatus("Provider: " + m.currentProvider().String())
	case key.Matches(msg, m.keys.pane):
		m.pane = (m.pane + 1) % 3
	case key.Matches(msg, m.keys.enter):
		m.playSelected()
	case key.Matches(msg, m.keys.enqueue):
		if t, ok := m.selected(); ok && m.pane != QueuePane {
			n := m.player.Enqueue(t)
			m.setStatus(fmt.Sprintf("Queued %s (%d in queue)", t.Title, n))
		}
	case key.Matches(msg, m.keys.remove):
		if m.pane == QueuePane {
			m.player.Remove(m.queue.Index())
		}
	case key.Matches(msg, m.keys.toggle):
		m.player.TogglePlayPause()
	case key.Matches(msg, m.keys.next):
		m.player.Next()
	case key.Matches(msg, m.keys.previous):
		m.player.Previous()
	case key.Matches(msg, m.keys.forward):
		m.player.Seek(m.player.State().CurrentPosition + seekStep)
	case key.Matches(msg, m.keys.rewind):
		m.player.Seek(m.player.State().CurrentPosition - seekStep)
	case key.Matches(msg, m.keys.louder):
		m.player.SetVolume(m.player.Volume() + volumeStep)
	case key.Matches(msg, m.keys.quieter):
		m.player.SetVolume(m.player.Volume() - volumeStep)
	case key.Matches(msg, m.keys.favorite):
		cmd = m.toggleFavorite()
	case key.Matches(msg, m.keys.open):
		cmd = m.openSelected()
	default:
		return m.updatePane(msg)
	}

	m.syncQueue()
	return m, cmd
}

// handleMouse drives the seek controller from drags on the progress bar row.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && msg.Y == barRow && msg.X < m.barWidth() {
			m.seek.PointerDown(float64(msg.X), m.barBounds())
		}
	case tea.MouseActionMotion:
		m.seek.PointerMove(float64(msg.X))
	case tea.MouseActionRelease:
		m.seek.PointerUp()
	}
	return m, nil
}

func (m *Model) updatePane(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.pane {
	case QueuePane:
		m.queue, cmd = m.queue.Update(msg)
	case FavoritesPane:
		m.favs, cmd = m.favs.Update(msg)
	default:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) playSelected() {
	if m.pane == QueuePane {
		m.player.PlayAt(m.queue.Index())
		return
	}
	if t, ok := m.selected(); ok {
		m.player.LoadTrack(t)
		m.player.Play()
	}
}

func (m *Model) activeList() *list.Model {
	switch m.pane {
	case QueuePane:
		return &m.queue
	case FavoritesPane:
		return &m.favs
	default:
		return &m.results
	}
}

func (m *Model) selected() (models.Track, bool) {
	item, ok := m.activeList().SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

func (m *Model) currentProvider() models.Provider {
	return m.providers[m.provider]
}

// syncQueue rebuilds the queue pane when the player's queue or favorites changed since the last render.
func (m *Model) syncQueue() {
	state := m.player.State()
	if !m.dirty && state.QueueIndex == m.queueIdx && state.QueueLength == m.queueLen {
		return
	}
	m.dirty = false
	m.queueIdx = state.QueueIndex
	m.queueLen = state.QueueLength

	sel := m.queue.Index()
	m.queue.SetItems(toItems(m.player.Queue(), state.QueueIndex))
	m.queue.Title = fmt.Sprintf("Queue (%d)", state.QueueLength)
	if sel >= state.QueueLength && state.QueueLength > 0 {
		m.queue.Select(state.QueueLength - 1)
	}
}

// applyFavorite copies a toggled flag onto every visible copy of the track.
func (m *Model) applyFavorite(t models.Track) tea.Cmd {
	k := t.Key()
	m.player.SetFavorited(k, t.IsFavorited)

	for i, it := range m.results.Items() {
		item, ok := it.(trackItem)
		if ok && item.track.Key() == k {
			item.track.IsFavorited = t.IsFavorited
			m.results.SetItem(i, item)
		}
	}

	m.dirty = true
	m.syncQueue()

	return m.loadFavorites()
}

func (m *Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) runSearch(p models.Provider, query string) tea.Cmd {
	search, store, ctx, logger := m.search, m.store, m.ctx, m.logger
	return func() tea.Msg {
		if search == nil {
			return searchDoneMsg(p, query, nil, fmt.Errorf("%w: search is not configured", shared.ErrServiceUnavailable))
		}
		// a zero limit selects the searcher's default page size
		tracks, err := search.Search(ctx, p, query, 0)
		if err != nil {
			return searchDoneMsg(p, query, nil, err)
		}
		if store != nil {
			if err := favorites.MarkFavorites(ctx, store, tracks); err != nil {
				logger.Warn("could not mark favorites", "provider", p, "err", err)
			}
		}
		return searchDoneMsg(p, query, tracks, nil)
	}
}

func (m *Model) loadFavorites() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		groups, err := favorites.ListAll(ctx, store)
		return favoritesLoadedMsg(groups, err)
	}
}

// favoritesTitle reads like "All favorites · spotify 2 · soundcloud 1".
func favoritesTitle(groups []favorites.Group) string {
	parts := []string{"All favorites"}
	for _, g := range groups {
		parts = append(parts, fmt.Sprintf("%s %d", g.Provider, g.Count))
	}
	return strings.Join(parts, " · ")
}

// toggleFavorite flips the selected track, or the current one when nothing is selected.
// The returned command works on a copy so the player is never touched off the update loop.
func (m *Model) toggleFavorite() tea.Cmd {
	if m.store == nil {
		m.setError(errNoStore)
		return nil
	}

	t, ok := m.selected()
	if !ok {
		cur := m.player.State().CurrentTrack
		if cur == nil {
			return nil
		}
		t = *cur
	}

	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		err := favorites.Toggle(ctx, store, &t)
		return favoriteToggledMsg(t, err)
	}
}

func (m *Model) openSelected() tea.Cmd {
	t, ok := m.selected()
	if !ok || t.TrackURL == "" {
		return nil
	}
	url := t.TrackURL
	return func() tea.Msg {
		return browserOpenedMsg(openBrowser(url))
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.logger.Warn("action failed", "err", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) resize() {
	h := m.height - chromeRows
	if h < 5 {
		h = 5
	}
	m.results.SetSize(m.width, h)
	m.queue.SetSize(m.width, h)
	m.favs.SetSize(m.width, h)
	m.input.Width = max(m.width-4, 10)
	m.help.Width = m.width
}

func (m *Model) barWidth() int {
	return max(m.width-barReserved, minBarWidth)
}

// barBounds maps the first cell to 0% and the last to 100%.
func (m *Model) barBounds() playback.Bounds {
	return playback.Bounds{Left: 0, Width: float64(m.barWidth() - 1)}
}

// View renders the player header, the search box and the active pane.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")
	b.WriteString(m.renderBar())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.activeList().View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(m.providers))
	for i, p := range m.providers {
		if i == m.provider {
			tabs[i] = styles.active.Render(p.String())
		} else {
			tabs[i] = styles.help.Render(p.String())
		}
	}

	vol := fmt.Sprintf("vol %d%%", int(math.Round(m.player.Volume()*100)))
	return fmt.Sprintf("%s  %s  %s  %s", styles.title.Render("mixdeck"), strings.Join(tabs, " "), m.pane, styles.help.Render(vol))
}

func (m *Model) renderNowPlaying() string {
	state := m.player.State()
	if !state.HasTrack() {
		return styles.help.Render("■ Nothing playing")
	}

	icon := "❚❚"
	if state.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s - %s", icon, state.CurrentTrack.Artists(), state.CurrentTrack.Title)
	if state.CurrentTrack.IsFavorited {
		line += " " + styles.fav.Render("♥")
	}
	return fmt.Sprintf("%s  %s", line, styles.help.Render(fmt.Sprintf("[%d/%d]", state.QueueIndex+1, state.QueueLength)))
}

func (m *Model) renderBar() string {
	width := m.barWidth()
	filled := int(math.Round(m.seek.Fraction() * float64(width)))
	filled = min(max(filled, 0), width)

	bar := styles.filled.Render(strings.Repeat("━", filled)) + styles.empty.Render(strings.Repeat("─", width-filled))

	state := m.player.State()
	if !state.HasTrack() {
		return fmt.Sprintf("%s %s / %s", bar, playback.FormatDuration(-1), playback.FormatDuration(-1))
	}
	return fmt.Sprintf("%s %s / %s", bar, playback.FormatDuration(m.seek.Displayed()), playback.FormatDuration(state.Duration()))
}

func (m *Model) renderStatus() string {
	switch {
	case m.loading:
		return styles.warn.Render(m.status + "...")
	case m.statusErr:
		return styles.err.Render("Error: " + m.status)
	default:
		return styles.ok.Render(m.status)
	}
}
