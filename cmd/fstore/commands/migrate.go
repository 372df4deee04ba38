package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/config"
	"github.com/marmos91/fstore/pkg/metadata/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending metadata store schema migrations",
	Long: `Apply pending database migrations to the configured Postgres metadata
store. Run this once after installing or upgrading fstore, before starting
the server.

Examples:
  fstore migrate
  fstore migrate --config /etc/fstore/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("running metadata store migrations", "database", cfg.Database.Database)

	if err := postgres.RunMigrations(context.Background(), cfg.Database); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("Migrations completed successfully")
	return nil
}
