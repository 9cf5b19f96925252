package normalize

import (
	"fmt"

	"github.com/desertthunder/mixdeck/internal/models"
)

// Spotify search response types, limited to the fields the mapping reads.
//
// See https://developer.spotify.com/documentation/web-api/reference/search
type spotifySearch struct {
	Tracks *struct {
		Items *[]spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs *spotifyURLs `json:"external_urls"`
}

type spotifyAlbum struct {
	AlbumType string         `json:"album_type"`
	Images    []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Artists      *[]spotifyArtist `json:"artists"`
	Album        *spotifyAlbum    `json:"album"`
	ExternalURLs *spotifyURLs     `json:"external_urls"`
	DurationMS   int64            `json:"duration_ms"`
	URI          string           `json:"uri"`
}

// Spotify normalizes a nested `tracks.items[...]` search response.
//
// The cover image is the album's first (largest) image.
func Spotify(raw []byte) ([]models.SearchItem, error) {
	var resp spotifySearch
	if err := decode("spotify", raw, &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, malformed("spotify", -1, "tracks")
	}
	if resp.Tracks.Items == nil {
		return nil, malformed("spotify", -1, "tracks.items")
	}

	items := make([]models.SearchItem, 0, len(*resp.Tracks.Items))
	for i, track := range *resp.Tracks.Items {
		item, err := spotifyItem(i, track)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func spotifyItem(i int, t spotifyTrack) (models.SearchItem, error) {
	switch {
	case t.Artists == nil:
		return models.SearchItem{}, malformed("spotify", i, "artists")
	case t.Album == nil:
		return models.SearchItem{}, malformed("spotify", i, "album")
	case len(t.Album.Images) == 0:
		return models.SearchItem{}, malformed("spotify", i, "album.images[0]")
	case t.ExternalURLs == nil:
		return models.SearchItem{}, malformed("spotify", i, "external_urls")
	}

	artists := make([]models.ArtistInfo, 0, len(*t.Artists))
	for j, a := range *t.Artists {
		if a.ExternalURLs == nil {
			return models.SearchItem{}, malformed("spotify", i, fmt.Sprintf("artists[%d].external_urls", j))
		}
		artists = append(artists, models.ArtistInfo{
			Name:       trimmed(a.Name),
			ProfileURL: a.ExternalURLs.Spotify,
			ID:         a.ID,
		})
	}

	return models.SearchItem{
		ID:         t.ID,
		Title:      trimmed(t.Name),
		ArtistInfo: artists,
		ImageURL:   t.Album.Images[0].URL,
		TrackURL:   t.ExternalURLs.Spotify,
		AlbumType:  t.Album.AlbumType,
		Duration:   t.DurationMS,
		URI:        t.URI,
	}, nil
}
