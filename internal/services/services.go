package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/mixdeck/internal/cache"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/normalize"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Search result limits shared by every provider.
const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// ErrProviderNotConfigured is returned when searching a provider with no credentials.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Searcher is a music provider's track search.
type Searcher interface {
	// Name returns the display name of the provider (e.g. "Spotify").
	Name() string
	// Provider identifies which payload shape SearchRaw returns.
	Provider() models.Provider
	// SearchRaw returns the provider's search response body.
	SearchRaw(ctx context.Context, query string, limit int) ([]byte, error)
}

// Aggregator runs searches against the configured providers and normalizes the results.
type Aggregator struct {
	searchers map[models.Provider]Searcher
	cache     cache.Cache
	logger    *log.Logger
}

// NewAggregator creates an Aggregator. c may be nil to disable caching.
func NewAggregator(logger *log.Logger, c cache.Cache, searchers ...Searcher) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}

	a := &Aggregator{
		searchers: make(map[models.Provider]Searcher, len(searchers)),
		cache:     c,
		logger:    logger.WithPrefix("search"),
	}
	for _, s := range searchers {
		a.searchers[s.Provider()] = s
	}
	return a
}

// Providers lists the configured providers in display order.
func (a *Aggregator) Providers() []models.Provider {
	var out []models.Provider
	for _, p := range models.Providers {
		if _, ok := a.searchers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Search queries one provider and returns its results as player tracks.
//
// Limit is clamped to [1, MaxLimit] with DefaultLimit for non-positive values. Only payloads that normalize cleanly
// are cached.
func (a *Aggregator) Search(ctx context.Context, p models.Provider, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", shared.ErrInvalidInput)
	}
	limit = ClampLimit(limit)

	s, ok := a.searchers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, p)
	}

	key := cache.Key(p, query, limit)
	if raw, ok := a.cached(ctx, key); ok {
		items, err := normalize.Normalize(p, raw)
		if err == nil {
			a.logger.Debug("cache hit", "provider", p, "query", query)
			return normalize.ToTracks(p, items), nil
		}
		a.logger.Warn("discarding cached payload", "key", key, "err", err)
	}

	raw, err := s.SearchRaw(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", s.Name(), err)
	}

	items, err := normalize.Normalize(p, raw)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", s.Name(), err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, raw); err != nil {
			a.logger.Warn("cache write failed", "key", key, "err", err)
		}
	}

	a.logger.Debug("search complete", "provider", p, "query", query, "results", len(items))
	return normalize.ToTracks(p, items), nil
}

func (a *Aggregator) cached(ctx context.Context, key string) ([]byte, bool) {
	if a.cache == nil {
		return nil, false
	}
	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	return raw, ok
}

// Result is one provider's share of [Aggregator.SearchAll].
type Result struct {
	Provider models.Provider
	Tracks   []models.Track
	Err      error
}

// SearchAll queries every configured provider concurrently.
//
// A failing provider does not cancel the others; its Result carries the error. The returned error is non-nil only
// when every provider failed.
func (a *Aggregator) SearchAll(ctx context.Context, query string, limit int) ([]Result, error) {
	providers := a.Providers()
	if len(providers) == 0 {
		return nil, ErrProviderNotConfigured
	}

	results := make([]Result, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			tracks, err := a.Search(ctx, p, query, limit)
			results[i] = Result{Provider: p, Tracks: tracks, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) == len(results) {
		return results, errors.Join(errs...)
	}
	return results, nil
}

// ClampLimit applies the default and maximum result counts.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
