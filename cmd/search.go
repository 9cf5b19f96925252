package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries one provider, or every configured provider with --provider all, and prints the merged results.
//
// Results are marked against the favorites store when one can be opened; a store failure only costs the marks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	search, err := r.searcher(ctx)
	if err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	var tracks []models.Track

	if name := cmd.String("provider"); strings.EqualFold(name, "all") {
		results, err := search.SearchAll(ctx, query, limit)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Err != nil {
				r.logger.Warn("provider search failed", "provider", res.Provider, "err", res.Err)
				continue
			}
			tracks = append(tracks, res.Tracks...)
		}
	} else {
		p, err := models.LookupProvider(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		if tracks, err = search.Search(ctx, p, query, limit); err != nil {
			return err
		}
	}

	if store, err := r.openStore(ctx); err != nil {
		r.logger.Warn("favorites unavailable, results are unmarked", "err", err)
	} else if err := favorites.MarkFavorites(ctx, store, tracks); err != nil {
		r.logger.Warn("could not mark favorites", "err", err)
	}

	return r.render(cmd, format, fmt.Sprintf("Results for %q", query), tracks)
}

// FavoritesList prints stored favorites newest first, for one provider or, with --provider all, for every provider
// with per-provider counts in the title.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.String("provider"))
	all := name == "" || strings.EqualFold(name, "all")

	var p models.Provider
	if !all {
		var err error
		if p, err = models.LookupProvider(name); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	if all {
		groups, err := favorites.ListAll(ctx, store)
		if err != nil {
			return err
		}
		return r.render(cmd, format, allFavoritesTitle(groups), favorites.Flatten(groups))
	}

	tracks, err := store.List(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to list favorites: %w", err)
	}

	return r.render(cmd, format, fmt.Sprintf("%s favorites", p), tracks)
}

// FavoritesAdd searches the provider and favorites the result at --index.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	p, err := models.LookupProvider(cmd.String("provider"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	index := int(cmd.Int("index"))
	if index < 1 {
		return fmt.Errorf("%w: index must be at least 1", shared.ErrInvalidArgument)
	}

	search, err := r.searcher(ctx)
	if err != nil {
		return err
	}
	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	tracks, err := search.Search(ctx, p, query, index)
	if err != nil {
		return err
	}
	if index > len(tracks) {
		return fmt.Errorf("%w: only %d results for %q", shared.ErrInvalidArgument, len(tracks), query)
	}

	track := tracks[index-1]
	if err := favorites.Toggle(ctx, store, &track); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}
	return r.writePlain("♥ %s - %s (%s:%s)\n", track.Artists(), track.Title, track.Provider, track.ID)
}

// FavoritesRemove deletes a favorite by provider and track id.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	p, err := models.LookupProvider(cmd.String("provider"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	if err := store.Remove(ctx, id, p); err != nil {
		if errors.Is(err, favorites.ErrNotFavorited) {
			r.writePlain("%s:%s is not a favorite\n", p, id)
			return nil
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	r.writePlain("✓ Removed %s:%s\n", p, id)
	return nil
}

// render writes tracks to --output when set, otherwise to the runner's output.
func (r *Runner) render(cmd *cli.Command, format formatter.Format, title string, tracks []models.Track) error {
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, format, title, tracks); err != nil {
			return err
		}
		r.logger.Info("wrote tracks", "path", path, "count", len(tracks))
		return nil
	}
	return formatter.Write(r.output, format, title, tracks)
}

// allFavoritesTitle reads like "All favorites (spotify 2, soundcloud 1)".
func allFavoritesTitle(groups []favorites.Group) string {
	counts := make([]string, len(groups))
	for i, g := range groups {
		counts[i] = fmt.Sprintf("%s %d", g.Provider, g.Count)
	}
	return fmt.Sprintf("All favorites (%s)", strings.Join(counts, ", "))
}
