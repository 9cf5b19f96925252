package normalize

import (
	"bytes"

	"github.com/desertthunder/mixdeck/internal/models"
)

type soundcloudUser struct {
	ID           flexID `json:"id"`
	Username     string `json:"username"`
	PermalinkURL string `json:"permalink_url"`
	AvatarURL    string `json:"avatar_url"`
}

type soundcloudTrack struct {
	ID           flexID          `json:"id"`
	Title        string          `json:"title"`
	User         *soundcloudUser `json:"user"`
	ArtworkURL   string          `json:"artwork_url"`
	PermalinkURL string          `json:"permalink_url"`
	Duration     int64           `json:"duration"`
	URI          string          `json:"uri"`
}

type soundcloudPage struct {
	Collection *[]soundcloudTrack `json:"collection"`
}

// SoundCloud normalizes a flat track array, or the paginated `{"collection": [...]}` envelope returned when
// linked_partitioning is requested.
//
// Tracks without artwork fall back to the uploader's avatar.
func SoundCloud(raw []byte) ([]models.SearchItem, error) {
	var tracks []soundcloudTrack

	trimmedRaw := bytes.TrimSpace(raw)
	if len(trimmedRaw) > 0 && trimmedRaw[0] == '{' {
		var page soundcloudPage
		if err := decode("soundcloud", raw, &page); err != nil {
			return nil, err
		}
		if page.Collection == nil {
			return nil, malformed("soundcloud", -1, "collection")
		}
		tracks = *page.Collection
	} else {
		var list *[]soundcloudTrack
		if err := decode("soundcloud", raw, &list); err != nil {
			return nil, err
		}
		if list == nil {
			return nil, malformed("soundcloud", -1, "track list")
		}
		tracks = *list
	}

	items := make([]models.SearchItem, 0, len(tracks))
	for i, t := range tracks {
		if t.User == nil {
			return nil, malformed("soundcloud", i, "user")
		}

		image := t.ArtworkURL
		if image == "" {
			image = t.User.AvatarURL
		}

		items = append(items, models.SearchItem{
			ID:    string(t.ID),
			Title: trimmed(t.Title),
			ArtistInfo: []models.ArtistInfo{{
				Name:       trimmed(t.User.Username),
				ID:         string(t.User.ID),
				ProfileURL: t.User.PermalinkURL,
			}},
			ImageURL: image,
			TrackURL: t.PermalinkURL,
			Duration: t.Duration,
			URI:      t.URI,
		})
	}
	return items, nil
}
