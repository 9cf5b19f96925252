package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/playback"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	current bool
}

func (i trackItem) FilterValue() string { return i.track.Title }

func (i trackItem) Title() string {
	title := i.track.Title
	if i.current {
		title = "▶ " + title
	}
	if i.track.IsFavorited {
		title += " ♥"
	}
	return title
}

func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.Artists(), playback.FormatDuration(i.track.Length()))
	if i.track.AlbumType != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AlbumType)
	}
	return fmt.Sprintf("%s • %s", desc, i.track.Provider)
}

// toItems wraps tracks for a list, marking entry current (-1 for none).
func toItems(tracks []models.Track, current int) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, current: i == current}
	}
	return items
}

// newTrackList builds a list with the built-in filtering and quit keys disabled so the model's own bindings win.
func newTrackList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}
