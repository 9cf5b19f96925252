package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// ErrNotFavorited is returned by Remove when no matching favorite exists.
var ErrNotFavorited = errors.New("track is not favorited")

// Store is the favorites persistence contract.
type Store interface {
	// Add saves track keyed by (track.ID, track.Provider). Adding an existing favorite refreshes its metadata.
	Add(ctx context.Context, track models.Track) error
	// Remove deletes the favorite, returning [ErrNotFavorited] when it does not exist.
	Remove(ctx context.Context, trackID string, p models.Provider) error
	// List returns the provider's favorites, newest first, with IsFavorited set.
	List(ctx context.Context, p models.Provider) ([]models.Track, error)
	// Ping runs a trivial query against the backing database.
	Ping(ctx context.Context) error
}

// Toggle adds or removes t from the store depending on its current flag.
//
// t.IsFavorited is flipped only when the store call succeeds; on failure the track is left untouched and the error is
// returned for the caller to surface. Removing a favorite that is already gone counts as success.
func Toggle(ctx context.Context, store Store, t *models.Track) error {
	if t == nil {
		return fmt.Errorf("%w: no track", shared.ErrInvalidInput)
	}

	if t.IsFavorited {
		if err := store.Remove(ctx, t.ID, t.Provider); err != nil && !errors.Is(err, ErrNotFavorited) {
			return fmt.Errorf("failed to remove favorite %s: %w", t.Key(), err)
		}
		t.IsFavorited = false
		return nil
	}

	if err := store.Add(ctx, *t); err != nil {
		return fmt.Errorf("failed to add favorite %s: %w", t.Key(), err)
	}
	t.IsFavorited = true
	return nil
}

// MarkFavorites sets IsFavorited on each track that is in the store. One List call is made per provider present.
func MarkFavorites(ctx context.Context, store Store, tracks []models.Track) error {
	favorited := make(map[string]bool)
	seen := make(map[models.Provider]bool)

	for _, t := range tracks {
		if seen[t.Provider] {
			continue
		}
		seen[t.Provider] = true

		favs, err := store.List(ctx, t.Provider)
		if err != nil {
			return fmt.Errorf("failed to list %s favorites: %w", t.Provider, err)
		}
		for _, f := range favs {
			favorited[f.Key()] = true
		}
	}

	for i := range tracks {
		tracks[i].IsFavorited = favorited[tracks[i].Key()]
	}
	return nil
}

// Group is one provider's share of [ListAll].
type Group struct {
	Provider models.Provider `json:"provider"`
	Count    int             `json:"count"`
	Items    []models.Track  `json:"items"`
}

// ListAll lists the favorites of every provider, one [Group] per provider in display order.
func ListAll(ctx context.Context, store Store) ([]Group, error) {
	groups := make([]Group, 0, len(models.Providers))
	for _, p := range models.Providers {
		tracks, err := store.List(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s favorites: %w", p, err)
		}
		if tracks == nil {
			tracks = []models.Track{}
		}
		groups = append(groups, Group{Provider: p, Count: len(tracks), Items: tracks})
	}
	return groups, nil
}

// Flatten concatenates the groups' tracks in order.
func Flatten(groups []Group) []models.Track {
	out := []models.Track{}
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

func validate(t models.Track) error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrack reads the column order used by every List query:
// track_id, title, artists, image_url, track_url, album_type, duration_ms, uri.
func scanTrack(row rowScanner, p models.Provider) (models.Track, error) {
	var (
		item    models.SearchItem
		artists []byte
	)
	if err := row.Scan(&item.ID, &item.Title, &artists, &item.ImageURL, &item.TrackURL, &item.AlbumType, &item.Duration, &item.URI); err != nil {
		return models.Track{}, fmt.Errorf("failed to scan favorite: %w", err)
	}

	if len(artists) > 0 {
		if err := json.Unmarshal(artists, &item.ArtistInfo); err != nil {
			return models.Track{}, fmt.Errorf("failed to decode artists for %s: %w", item.ID, err)
		}
	}

	t := models.NewTrack(p, item)
	t.IsFavorited = true
	return t, nil
}

func encodeArtists(a []models.ArtistInfo) ([]byte, error) {
	if a == nil {
		a = []models.ArtistInfo{}
	}
	return json.Marshal(a)
}
