// Command server runs the task tracker HTTP API and its database migrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/task-tracker/internal/config"
	"github.com/phrazzld/task-tracker/internal/platform/logger"
	"github.com/phrazzld/task-tracker/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The --config flag is shared by every
// subcommand.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "task-tracker",
		Short:         "Multi-user task tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the task workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				log.Error("failed to initialize application", "error", err)
				return err
			}
			return app.Run(ctx)
		},
	}
}

// migrationCommands are the goose commands the migrate subcommand accepts.
var migrationCommands = []string{
	"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version",
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <command> [args]",
		Short:     "Apply or inspect database migrations",
		Long:      "Runs a goose migration command against the configured PostgreSQL database.",
		Args:      cobra.MatchAll(cobra.MinimumNArgs(1), validMigrationCommand),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if cfg.Database.InMemory() {
				return fmt.Errorf("migrate requires a database URL (set %s_DATABASE_URL)", config.EnvPrefix)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolOptions{MaxOpenConns: 1}, log)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("failed to close database", "error", closeErr)
				}
			}()

			return postgres.Migrate(ctx, db.DB, args[0], log, args[1:]...)
		},
	}
}

func validMigrationCommand(_ *cobra.Command, args []string) error {
	for _, c := range migrationCommands {
		if args[0] == c {
			return nil
		}
	}
	return fmt.Errorf("unknown migration command %q", args[0])
}

// loadConfig loads the configuration and builds the process logger, which
// writes to the command's output stream.
func loadConfig(cmd *cobra.Command, configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}
