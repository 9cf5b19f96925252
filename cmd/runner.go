package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/cache"
	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/services"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Searcher is the search surface shared by the CLI, the TUI and the HTTP server. [services.Aggregator] implements it.
type Searcher interface {
	Providers() []models.Provider
	Search(ctx context.Context, p models.Provider, query string, limit int) ([]models.Track, error)
	SearchAll(ctx context.Context, query string, limit int) ([]services.Result, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The searcher and the favorites store are built on first use from the loaded config unless injected.
type Runner struct {
	config     *shared.Config
	configPath string
	search     Searcher
	store      favorites.Store
	logger     *log.Logger
	output     io.Writer
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Search     Searcher
	Store      favorites.Store
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		search:     opts.Search,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, favoritesCommand, playerCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init loads the config named by --config before any command runs. A missing file falls back to defaults.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the store and cache connections opened by the runner.
func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close failed", "err", err)
		}
	}
	r.closers = nil
}

// searcher returns the injected searcher or builds an [services.Aggregator] over the configured providers.
//
// The redis cache is optional: a configured but unreachable server is logged and searches go uncached.
func (r *Runner) searcher(ctx context.Context) (Searcher, error) {
	if r.search != nil {
		return r.search, nil
	}

	var searchers []services.Searcher
	creds := r.config.Credentials

	if creds.Spotify.Configured() {
		svc, err := services.NewSpotifyService(ctx, creds.Spotify, r.config.HTTP, r.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		searchers = append(searchers, svc)
	}
	if creds.SoundCloud.Configured() {
		svc, err := services.NewSoundCloudService(creds.SoundCloud, r.config.HTTP, r.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SoundCloud service: %w", err)
		}
		searchers = append(searchers, svc)
	}
	if len(searchers) == 0 {
		return nil, fmt.Errorf("%w: no provider credentials configured", shared.ErrMissingCredentials)
	}

	var c cache.Cache
	if url := r.config.Cache.RedisURL; url != "" {
		rc, err := cache.Open(ctx, url, r.config.Cache.TTL)
		if err != nil {
			r.logger.Warn("search cache unavailable, continuing without it", "err", err)
		} else {
			r.closers = append(r.closers, rc.Close)
			c = rc
		}
	}

	r.search = services.NewAggregator(r.logger, c, searchers...)
	return r.search, nil
}

// openStore returns the injected store or opens the configured one.
//
// The connection is checked once with [shared.CheckConnection] and the schema migrated before the store is returned.
func (r *Runner) openStore(ctx context.Context) (favorites.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	dbc := r.config.Database
	switch dbc.Driver {
	case shared.DriverPostgres:
		pool, err := shared.NewPostgresPool(ctx, dbc)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() error { pool.Close(); return nil })

		store := favorites.NewPostgresStore(pool)
		if err := shared.CheckConnection(ctx, shared.QuerierFunc(store.Ping), r.logger); err != nil {
			return nil, err
		}
		if err := favorites.AutoMigrate(ctx, pool); err != nil {
			return nil, err
		}
		r.store = store

	default:
		db, err := shared.NewDatabase(dbc.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrDatabaseConnection, err)
		}
		r.closers = append(r.closers, db.Close)
		shared.ConfigureDatabase(db, dbc.MaxOpenConns, dbc.MaxIdleConns)

		store := favorites.NewSQLiteStore(db)
		if err := shared.CheckConnection(ctx, shared.QuerierFunc(store.Ping), r.logger); err != nil {
			return nil, err
		}
		if _, err := shared.RunMigrations(db, r.logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		r.store = store
	}

	return r.store, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
