// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mixdeck/internal/services"
	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, csv or markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

func providerFlag(value, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   usage,
		Value:   value,
	}
}

// setupCommand handles setup operations for configuration and the favorites database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Connect to the favorites database and apply migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the latest SQLite migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// searchCommand searches one or all providers
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search Spotify and SoundCloud for tracks",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append([]cli.Flag{
			providerFlag("all", "Provider to search: spotify, soundcloud or all"),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum results per provider",
				Value:   services.DefaultLimit,
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

// favoritesCommand manages stored favorites
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite tracks",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorites for one provider or all of them",
				Flags:  append([]cli.Flag{providerFlag("all", "Provider: spotify, soundcloud or all")}, outputFlags()...),
				Action: r.FavoritesList,
			},
			{
				Name:      "add",
				Usage:     "Search a provider and favorite one of the results",
				ArgsUsage: "<query>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					providerFlag("spotify", "Provider: spotify or soundcloud"),
					&cli.IntFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "1-based position of the result to favorite",
						Value:   1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the stored track as JSON",
					},
				},
				Action: r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a favorite by track id",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{providerFlag("spotify", "Provider: spotify or soundcloud")},
				Action: r.FavoritesRemove,
			},
		},
	}
}

// playerCommand returns the top-level TUI command.
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive terminal player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file for the TUI session",
				Value: "./tmp/mixdeck-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search, favorites and remote player API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}
