package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/wpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set wordpress.api_url and the contentful credentials (or their environment variables)\n")
	r.writePlain("2. Run 'wpx setup check' to validate the settings\n")
	return nil
}

// SetupDatabase initializes the history database and runs migrations, or rolls back the latest one with --rollback.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Database
	r.logger.Info("initializing database", "path", config.Path)

	db, err := shared.NewDatabase(config.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.MaxOpenConns, config.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("✓ Rolled back latest migration\n")
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Path)
	return nil
}

// SetupCheck validates the loaded configuration and reports pending migrations.
func (r *Runner) SetupCheck(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Configuration")
	r.writePlain("Config file: %s\n", r.configPath)
	r.writePlain("WordPress API: %s\n", r.config.WordPress.APIURL)
	r.writePlain("Contentful space: %s (%s, %s)\n", r.config.Contentful.SpaceID, r.config.Contentful.Environment, r.config.Contentful.Locale)
	r.writePlain("Upload: concurrency %d, delay %s, timeout %s\n",
		r.config.Upload.Concurrency, r.config.Upload.Delay, r.config.Upload.Timeout)
	r.writePlain("Output directory: %s\n", r.config.Paths.OutputDir)

	validateErr := r.config.Validate()
	if validateErr != nil {
		r.writePlain("✗ %v\n", validateErr)
	} else {
		r.writePlain("✓ Configuration is complete\n")
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return errors.Join(validateErr, err)
	}
	defer db.Close()

	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return errors.Join(validateErr, err)
	}
	if len(pending) == 0 {
		r.writePlain("✓ Database %s is up to date\n", r.config.Database.Path)
	} else {
		r.writePlain("✗ Database %s has %d pending migrations, run 'wpx setup database'\n", r.config.Database.Path, len(pending))
		for _, m := range pending {
			r.writePlain("  - %04d %s\n", m.Version, m.Name)
		}
	}

	return validateErr
}

// setupCommand handles configuration and database initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file, initialize the database and check settings",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "check",
				Usage:  "Validate configuration and database state",
				Action: r.SetupCheck,
			},
		},
	}
}
