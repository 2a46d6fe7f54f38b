package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/shared"
)

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("%s Wrote %s\n", okColor.Sprint("✓"), r.configPath)
	r.writePlain("Edit server.base_url to point at the media manager, or set PODX_BASE_URL.\n")
	return nil
}

// SetupDatabase initializes the history database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	if path == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrInvalidConfig)
	}

	if r.db == nil {
		r.logger.Info("initializing database", "path", path)
		db, err := shared.OpenHistory(path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.attachHistory(db)
	}

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(r.db); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		r.writePlain("%s Rolled back the latest migration\n", okColor.Sprint("✓"))
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("%s Database ready at %s\n", okColor.Sprint("✓"), path)
	return nil
}
