package models

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies the external music source a track came from.
type Provider int

const (
	Spotify Provider = iota
	SoundCloud
)

// Providers lists every supported [Provider] in display order.
var Providers = []Provider{Spotify, SoundCloud}

func (p Provider) String() string {
	switch p {
	case Spotify:
		return "spotify"
	case SoundCloud:
		return "soundcloud"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// ParseProvider maps a provider name onto a [Provider].
//
// "spotify" (any case) is Spotify; every other value is treated as SoundCloud.
func ParseProvider(s string) Provider {
	if strings.EqualFold(strings.TrimSpace(s), "spotify") {
		return Spotify
	}
	return SoundCloud
}

// LookupProvider is the strict form of [ParseProvider] used for user input.
func LookupProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spotify":
		return Spotify, nil
	case "soundcloud", "sc":
		return SoundCloud, nil
	default:
		return 0, fmt.Errorf("unsupported provider %q", s)
	}
}

func (p Provider) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Provider) UnmarshalText(b []byte) error {
	*p = ParseProvider(string(b))
	return nil
}

// ArtistInfo is a credited artist on a [SearchItem].
type ArtistInfo struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
	ID         string `json:"id"`
}

// SearchItem is a provider search result after normalization.
//
// Duration is in milliseconds. AlbumType is empty when the provider has no album concept.
type SearchItem struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	ArtistInfo []ArtistInfo `json:"artistInfo"`
	ImageURL   string       `json:"imageUrl"`
	TrackURL   string       `json:"trackUrl"`
	AlbumType  string       `json:"albumType,omitempty"`
	Duration   int64        `json:"duration"`
	URI        string       `json:"uri,omitempty"`
}

// Artists returns the artist names joined for display.
func (s SearchItem) Artists() string {
	names := make([]string, 0, len(s.ArtistInfo))
	for _, a := range s.ArtistInfo {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Length returns Duration as a [time.Duration].
func (s SearchItem) Length() time.Duration {
	return time.Duration(s.Duration) * time.Millisecond
}

// Track is a [SearchItem] as held by the player and the queue.
type Track struct {
	SearchItem
	Provider    Provider `json:"provider"`
	IsFavorited bool     `json:"isFavorited"`
}

// NewTrack lifts a search result into a player [Track].
//
// URI defaults to the track URL when the provider did not supply one.
func NewTrack(p Provider, item SearchItem) Track {
	if item.URI == "" {
		item.URI = item.TrackURL
	}
	return Track{SearchItem: item, Provider: p}
}

// Key identifies a track across providers.
func (t Track) Key() string {
	return t.Provider.String() + ":" + t.ID
}

// PlaybackState is an immutable snapshot of the player.
type PlaybackState struct {
	CurrentTrack    *Track        `json:"currentTrack"`
	CurrentPosition time.Duration `json:"currentPosition"`
	IsPlaying       bool          `json:"isPlaying"`
	Volume          float64       `json:"volume"`
	QueueIndex      int           `json:"queueIndex"`
	QueueLength     int           `json:"queueLength"`
}

// HasTrack reports whether a track is loaded.
func (s PlaybackState) HasTrack() bool {
	return s.CurrentTrack != nil
}

// Duration returns the loaded track's length, or zero when idle.
func (s PlaybackState) Duration() time.Duration {
	if s.CurrentTrack == nil {
		return 0
	}
	return s.CurrentTrack.Length()
}
