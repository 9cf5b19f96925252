package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/playback"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/desertthunder/mixdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	search, err := r.searcher(ctx)
	if err != nil {
		r.logger.Warn("search disabled", "err", err)
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	player := playback.NewPlayer(nil, r.logger)
	player.SetVolume(r.config.Player.Volume)

	return ui.Run(ctx, ui.NewModel(ctx, search, store, player, r.logger, r.config.Player.Tick))
}
