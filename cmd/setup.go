package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Add your Spotify and SoundCloud credentials, then run 'mixdeck setup database'.\n")
	return nil
}

// SetupDatabase connects to the configured favorites database and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	dbc := r.config.Database
	target := dbc.Path
	if dbc.Driver == shared.DriverPostgres {
		target = "postgres"
	}
	r.logger.Info("initializing database", "driver", dbc.Driver, "target", target)

	if _, err := r.openStore(ctx); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", target)
	r.writePlain("✓ Favorites database ready (%s)\n", dbc.Driver)
	return nil
}

// SetupRollback reverts the most recent SQLite migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	dbc := r.config.Database
	if dbc.Driver != shared.DriverSQLite {
		return fmt.Errorf("%w: rollback is only supported for sqlite", shared.ErrInvalidArgument)
	}

	db, err := shared.NewDatabase(dbc.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrDatabaseConnection, err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	r.writePlain("✓ Rolled back latest migration on %s\n", dbc.Path)
	return nil
}
