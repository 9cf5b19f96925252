package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/mixdeck/internal/cache"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/normalize"
	"github.com/desertthunder/mixdeck/internal/shared"
	tu "github.com/desertthunder/mixdeck/internal/testing"
)

type MockSearcher struct {
	mock.Mock
	provider models.Provider
}

func (m *MockSearcher) Name() string              { return m.provider.String() }
func (m *MockSearcher) Provider() models.Provider { return m.provider }

func (m *MockSearcher) SearchRaw(ctx context.Context, query string, limit int) ([]byte, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newMockSearcher(p models.Provider) *MockSearcher {
	return &MockSearcher{provider: p}
}

func setupCache(t *testing.T) *cache.RedisCache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.NewRedisCache(rdb, time.Minute)
}

func TestAggregatorSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes to tracks", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "rick", 20).Return([]byte(tu.SpotifySearchJSON), nil)

		a := NewAggregator(nil, nil, sp)
		tracks, err := a.Search(ctx, models.Spotify, "  rick ", 0)
		require.NoError(t, err)
		require.Len(t, tracks, 2)

		assert.Equal(t, models.Spotify, tracks[0].Provider)
		assert.Equal(t, "spotify:track:4uLU6hMCjMI75M1A2tKUQC", tracks[0].URI)
		assert.False(t, tracks[0].IsFavorited)
		sp.AssertExpectations(t)
	})

	t.Run("empty query", func(t *testing.T) {
		a := NewAggregator(nil, nil, newMockSearcher(models.Spotify))
		_, err := a.Search(ctx, models.Spotify, "   ", 10)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		a := NewAggregator(nil, nil, newMockSearcher(models.Spotify))
		_, err := a.Search(ctx, models.SoundCloud, "x", 10)
		assert.ErrorIs(t, err, ErrProviderNotConfigured)
	})

	t.Run("malformed payload", func(t *testing.T) {
		sc := newMockSearcher(models.SoundCloud)
		sc.On("SearchRaw", mock.Anything, "x", 10).Return([]byte(`[{"id":1,"title":"no user"}]`), nil)

		c := setupCache(t)
		a := NewAggregator(nil, c, sc)
		_, err := a.Search(ctx, models.SoundCloud, "x", 10)
		assert.ErrorIs(t, err, normalize.ErrMalformedPayload)

		_, hit, err := c.Get(ctx, cache.Key(models.SoundCloud, "x", 10))
		require.NoError(t, err)
		assert.False(t, hit, "malformed payloads must not be cached")
	})

	t.Run("provider error", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "x", 10).Return(nil, ErrProviderUnavailable)

		a := NewAggregator(nil, nil, sp)
		_, err := a.Search(ctx, models.Spotify, "x", 10)
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("second search is served from cache", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "rick", 5).Return([]byte(tu.SpotifySearchJSON), nil).Once()

		a := NewAggregator(nil, setupCache(t), sp)

		first, err := a.Search(ctx, models.Spotify, "rick", 5)
		require.NoError(t, err)
		second, err := a.Search(ctx, models.Spotify, "RICK", 5)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		sp.AssertNumberOfCalls(t, "SearchRaw", 1)
	})
}

func TestAggregatorSearchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all providers", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "mix", 10).Return([]byte(tu.SpotifySearchJSON), nil)
		sc := newMockSearcher(models.SoundCloud)
		sc.On("SearchRaw", mock.Anything, "mix", 10).Return([]byte(tu.SoundCloudSearchJSON), nil)

		a := NewAggregator(nil, nil, sc, sp)
		assert.Equal(t, []models.Provider{models.Spotify, models.SoundCloud}, a.Providers())

		results, err := a.SearchAll(ctx, "mix", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, models.Spotify, results[0].Provider)
		assert.Len(t, results[0].Tracks, 2)
		assert.Equal(t, models.SoundCloud, results[1].Provider)
		assert.Len(t, results[1].Tracks, 1)
	})

	t.Run("one provider fails", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "mix", 10).Return(nil, errors.New("timeout"))
		sc := newMockSearcher(models.SoundCloud)
		sc.On("SearchRaw", mock.Anything, "mix", 10).Return([]byte(tu.SoundCloudSearchJSON), nil)

		a := NewAggregator(nil, nil, sp, sc)
		results, err := a.SearchAll(ctx, "mix", 10)
		require.NoError(t, err)

		assert.Error(t, results[0].Err)
		assert.NoError(t, results[1].Err)
		assert.Len(t, results[1].Tracks, 1)
	})

	t.Run("every provider fails", func(t *testing.T) {
		sp := newMockSearcher(models.Spotify)
		sp.On("SearchRaw", mock.Anything, "mix", 10).Return(nil, errors.New("timeout"))

		a := NewAggregator(nil, nil, sp)
		_, err := a.SearchAll(ctx, "mix", 10)
		assert.Error(t, err)
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewAggregator(nil, nil).SearchAll(ctx, "mix", 10)
		assert.ErrorIs(t, err, ErrProviderNotConfigured)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(500))
}
