// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
)

// SpotifySearchJSON is a two-track Spotify /search response.
const SpotifySearchJSON = `{
  "tracks": {
    "items": [
      {
        "id": "4uLU6hMCjMI75M1A2tKUQC",
        "name": "Never Gonna Give You Up",
        "artists": [{"id": "0gxyHStUsqpMadRV0Di1Qt", "name": "Rick Astley", "external_urls": {"spotify": "https://open.spotify.com/artist/0gxyHStUsqpMadRV0Di1Qt"}}],
        "album": {"album_type": "album", "images": [{"url": "https://i.scdn.co/image/rick"}]},
        "external_urls": {"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
        "duration_ms": 213573,
        "uri": "spotify:track:4uLU6hMCjMI75M1A2tKUQC"
      },
      {
        "id": "0VjIjW4GlUZAMYd2vXMi3b",
        "name": "Blinding Lights",
        "artists": [{"id": "1Xyo4u8uXC1ZmMpatF05PJ", "name": "The Weeknd", "external_urls": {"spotify": "https://open.spotify.com/artist/1Xyo4u8uXC1ZmMpatF05PJ"}}],
        "album": {"album_type": "single", "images": [{"url": "https://i.scdn.co/image/weeknd"}]},
        "external_urls": {"spotify": "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b"},
        "duration_ms": 200040,
        "uri": "spotify:track:0VjIjW4GlUZAMYd2vXMi3b"
      }
    ]
  }
}`

// SoundCloudSearchJSON is a one-track SoundCloud /search/tracks response in the paginated envelope.
const SoundCloudSearchJSON = `{
  "collection": [
    {
      "id": 123456,
      "title": "Late Night Mix",
      "user": {"id": 42, "username": "dj-nobody", "permalink_url": "https://soundcloud.com/dj-nobody", "avatar_url": "https://i1.sndcdn.com/avatars-42.jpg"},
      "artwork_url": null,
      "permalink_url": "https://soundcloud.com/dj-nobody/late-night-mix",
      "duration": 3600000,
      "uri": "https://api.soundcloud.com/tracks/123456"
    }
  ],
  "next_href": null
}`

// NewTrack builds a track with the given id and length in seconds.
func NewTrack(p models.Provider, id string, seconds int64) models.Track {
	return models.NewTrack(p, models.SearchItem{
		ID:         id,
		Title:      "Track " + id,
		ArtistInfo: []models.ArtistInfo{{Name: "Artist " + id, ID: "a" + id}},
		TrackURL:   "https://example.com/tracks/" + id,
		Duration:   seconds * 1000,
	})
}

// MockStore is an in-memory [favorites.Store].
type MockStore struct {
	mu      sync.Mutex
	Favs    map[string]models.Track
	Err     error
	PingErr error
}

func NewMockStore() *MockStore {
	return &MockStore{Favs: make(map[string]models.Track)}
}

func (m *MockStore) Add(_ context.Context, t models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	t.IsFavorited = true
	m.Favs[t.Key()] = t
	return nil
}

func (m *MockStore) Remove(_ context.Context, id string, p models.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := p.String() + ":" + id
	if _, ok := m.Favs[key]; !ok {
		return favorites.ErrNotFavorited
	}
	delete(m.Favs, key)
	return nil
}

func (m *MockStore) List(_ context.Context, p models.Provider) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Track{}
	for _, t := range m.Favs {
		if t.Provider == p {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockStore) Ping(context.Context) error { return m.PingErr }

var _ favorites.Store = (*MockStore)(nil)

// ProviderServer is an httptest server that serves fixed search bodies and counts requests.
type ProviderServer struct {
	*httptest.Server
	hits   atomic.Int64
	status atomic.Int64
	body   string
}

// NewProviderServer serves body with status 200 on every path except /token, which returns a bearer token.
func NewProviderServer(t *testing.T, body string) *ProviderServer {
	t.Helper()
	ps := &ProviderServer{body: body}
	ps.status.Store(http.StatusOK)
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/token") {
			io.WriteString(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
			return
		}
		ps.hits.Add(1)
		w.WriteHeader(int(ps.status.Load()))
		io.WriteString(w, ps.body)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// Hits returns the number of non-token requests served.
func (p *ProviderServer) Hits() int { return int(p.hits.Load()) }

// SetStatus changes the status code for subsequent responses.
func (p *ProviderServer) SetStatus(code int) { p.status.Store(int64(code)) }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
