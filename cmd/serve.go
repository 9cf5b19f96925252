package main

import (
	"context"

	"github.com/desertthunder/mixdeck/internal/playback"
	"github.com/desertthunder/mixdeck/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
//
// The favorites store is checked once at startup; an unreachable database stops the command before it listens.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	search, err := r.searcher(ctx)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	hub := server.NewHub(r.logger)
	player := playback.NewPlayer(nil, r.logger)
	player.SetVolume(r.config.Player.Volume)
	session := server.NewSession(player, hub)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	srv := server.New(search, store, session, hub, r.logger).AllowOrigins(r.config.Server.AllowedOrigins...)
	return srv.ListenAndServe(ctx, addr, r.config.Player.Tick)
}
