package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgSearchDone
	MsgFavoritesLoaded
	MsgFavoriteToggled
	MsgBrowserOpened
)

type searchResult struct {
	provider models.Provider
	query    string
	tracks   []models.Track
	err      error
}

type favoritesResult struct {
	groups []favorites.Group
	err    error
}

type toggleResult struct {
	track models.Track
	err   error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(p models.Provider, query string, tracks []models.Track, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{p, query, tracks, err}}
}

// favoritesLoadedMsg is the constructor for [MsgFavoritesLoaded]
func favoritesLoadedMsg(groups []favorites.Group, err error) Msg {
	return Msg{kind: MsgFavoritesLoaded, data: favoritesResult{groups, err}}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(track models.Track, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: toggleResult{track, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
