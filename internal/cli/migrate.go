package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"pocketflix-portal/internal/config"
	pgmigrations "pocketflix-portal/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}
	logger := newLogger(cfg)
	group, err := pgmigrations.Apply(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("schema already up to date")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}
