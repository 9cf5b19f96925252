package normalize

import (
	"errors"
	"testing"

	"github.com/desertthunder/mixdeck/internal/models"
)

const spotifyFixture = `{
  "tracks": {
    "items": [
      {
        "id": "4uLU6hMCjMI75M1A2tKUQC",
        "name": "Never Gonna Give You Up",
        "artists": [
          {"id": "0gxyHStUsqpMadRV0Di1Qt", "name": "Rick Astley", "external_urls": {"spotify": "https://open.spotify.com/artist/0gxyHStUsqpMadRV0Di1Qt"}},
          {"id": "abc", "name": "Guest", "external_urls": {"spotify": "https://open.spotify.com/artist/abc"}}
        ],
        "album": {"album_type": "single", "images": [{"url": "http://x/img.png", "height": 640, "width": 640}, {"url": "http://x/small.png"}]},
        "external_urls": {"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
        "duration_ms": 210000,
        "uri": "spotify:track:4uLU6hMCjMI75M1A2tKUQC"
      }
    ]
  }
}`

const soundcloudFixture = `[
  {
    "id": 123456,
    "title": "Late Night Mix",
    "user": {"id": 42, "username": "dj-nobody", "permalink_url": "https://soundcloud.com/dj-nobody", "avatar_url": "https://i1.sndcdn.com/avatars-42.jpg"},
    "artwork_url": "https://i1.sndcdn.com/artworks-123.jpg",
    "permalink_url": "https://soundcloud.com/dj-nobody/late-night-mix",
    "duration": 3600000,
    "uri": "https://api.soundcloud.com/tracks/123456"
  },
  {
    "id": 789,
    "title": "No Artwork",
    "user": {"id": "43", "username": "bedroom", "permalink_url": "https://soundcloud.com/bedroom", "avatar_url": "https://i1.sndcdn.com/avatars-43.jpg"},
    "artwork_url": null,
    "permalink_url": "https://soundcloud.com/bedroom/no-artwork",
    "duration": 185000
  }
]`

func TestSpotify(t *testing.T) {
	t.Run("maps nested track fields", func(t *testing.T) {
		items, err := Spotify([]byte(spotifyFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}

		item := items[0]
		if item.ImageURL != "http://x/img.png" {
			t.Errorf("expected imageUrl http://x/img.png, got %s", item.ImageURL)
		}
		if item.Duration != 210000 {
			t.Errorf("expected duration 210000, got %d", item.Duration)
		}
		if item.AlbumType != "single" {
			t.Errorf("expected albumType single, got %s", item.AlbumType)
		}
		if item.Title != "Never Gonna Give You Up" {
			t.Errorf("unexpected title %q", item.Title)
		}
		if item.TrackURL != "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("unexpected track url %q", item.TrackURL)
		}
		if item.URI != "spotify:track:4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("unexpected uri %q", item.URI)
		}
		if len(item.ArtistInfo) != 2 {
			t.Fatalf("expected 2 artists, got %d", len(item.ArtistInfo))
		}
		if item.ArtistInfo[0].ProfileURL != "https://open.spotify.com/artist/0gxyHStUsqpMadRV0Di1Qt" {
			t.Errorf("unexpected profile url %q", item.ArtistInfo[0].ProfileURL)
		}
		if item.Artists() != "Rick Astley, Guest" {
			t.Errorf("unexpected artists %q", item.Artists())
		}
	})

	t.Run("empty result set", func(t *testing.T) {
		items, err := Spotify([]byte(`{"tracks":{"items":[]}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
	})

	tt := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `<html>`},
		{name: "empty body", raw: ``},
		{name: "missing tracks", raw: `{"albums":{}}`},
		{name: "missing items", raw: `{"tracks":{}}`},
		{name: "missing album", raw: `{"tracks":{"items":[{"id":"1","name":"a","artists":[],"external_urls":{"spotify":"u"}}]}}`},
		{name: "no album images", raw: `{"tracks":{"items":[{"id":"1","name":"a","artists":[],"album":{"album_type":"album","images":[]},"external_urls":{"spotify":"u"}}]}}`},
		{name: "missing artists", raw: `{"tracks":{"items":[{"id":"1","name":"a","album":{"images":[{"url":"i"}]},"external_urls":{"spotify":"u"}}]}}`},
		{name: "artist without urls", raw: `{"tracks":{"items":[{"id":"1","name":"a","artists":[{"id":"x","name":"y"}],"album":{"images":[{"url":"i"}]},"external_urls":{"spotify":"u"}}]}}`},
		{name: "missing external urls", raw: `{"tracks":{"items":[{"id":"1","name":"a","artists":[],"album":{"images":[{"url":"i"}]}}]}}`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			items, err := Spotify([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected error, got %d items", len(items))
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
			if items != nil {
				t.Error("expected no partial result")
			}
		})
	}
}

func TestSoundCloud(t *testing.T) {
	t.Run("maps flat track array", func(t *testing.T) {
		items, err := SoundCloud([]byte(soundcloudFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}

		first := items[0]
		if first.ID != "123456" {
			t.Errorf("expected numeric id rendered as 123456, got %s", first.ID)
		}
		if first.ImageURL != "https://i1.sndcdn.com/artworks-123.jpg" {
			t.Errorf("unexpected image %q", first.ImageURL)
		}
		if first.AlbumType != "" {
			t.Errorf("expected empty album type, got %q", first.AlbumType)
		}
		if first.Duration != 3600000 {
			t.Errorf("expected duration 3600000, got %d", first.Duration)
		}
		if len(first.ArtistInfo) != 1 || first.ArtistInfo[0].Name != "dj-nobody" || first.ArtistInfo[0].ID != "42" {
			t.Errorf("unexpected artist info %+v", first.ArtistInfo)
		}
	})

	t.Run("falls back to avatar without artwork", func(t *testing.T) {
		items, err := SoundCloud([]byte(soundcloudFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[1].ImageURL != "https://i1.sndcdn.com/avatars-43.jpg" {
			t.Errorf("expected avatar fallback, got %q", items[1].ImageURL)
		}
		if items[1].ArtistInfo[0].ID != "43" {
			t.Errorf("expected string user id 43, got %q", items[1].ArtistInfo[0].ID)
		}
	})

	t.Run("accepts collection envelope", func(t *testing.T) {
		raw := `{"collection":` + soundcloudFixture + `,"next_href":null}`
		items, err := SoundCloud([]byte(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected 2 items, got %d", len(items))
		}
	})

	tt := []struct {
		name string
		raw  string
	}{
		{name: "missing user", raw: `[{"id":1,"title":"t","permalink_url":"p","duration":1}]`},
		{name: "null body", raw: `null`},
		{name: "object without collection", raw: `{"errors":[]}`},
		{name: "scalar", raw: `42`},
		{name: "bad id", raw: `[{"id":{"nested":true},"user":{"id":1}}]`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SoundCloud([]byte(tc.raw))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("dispatches on provider", func(t *testing.T) {
		items, err := Normalize(models.Spotify, []byte(spotifyFixture))
		if err != nil || len(items) != 1 {
			t.Fatalf("spotify: got %d items, err %v", len(items), err)
		}

		items, err = Normalize(models.SoundCloud, []byte(soundcloudFixture))
		if err != nil || len(items) != 2 {
			t.Fatalf("soundcloud: got %d items, err %v", len(items), err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := Normalize(models.Provider(99), []byte(`[]`)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("expected ErrMalformedPayload, got %v", err)
		}
	})

	t.Run("string discriminant treats unknown as soundcloud", func(t *testing.T) {
		items, err := Normalize(models.ParseProvider("bandcamp"), []byte(soundcloudFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected 2 items, got %d", len(items))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, _ := Normalize(models.Spotify, []byte(spotifyFixture))
		b, _ := Normalize(models.Spotify, []byte(spotifyFixture))
		if a[0].ID != b[0].ID || a[0].ImageURL != b[0].ImageURL || len(a[0].ArtistInfo) != len(b[0].ArtistInfo) {
			t.Error("expected identical output for identical input")
		}
	})
}

func TestToTracks(t *testing.T) {
	items, err := SoundCloud([]byte(soundcloudFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tracks := ToTracks(models.SoundCloud, items)
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Provider != models.SoundCloud {
		t.Errorf("expected soundcloud provider, got %v", tracks[0].Provider)
	}
	if tracks[1].URI != "https://soundcloud.com/bedroom/no-artwork" {
		t.Errorf("expected uri to fall back to track url, got %q", tracks[1].URI)
	}
	if tracks[0].IsFavorited {
		t.Error("new tracks should not be favorited")
	}
}
