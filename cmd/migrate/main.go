package main

// Run database migrations:
//   go run ./cmd/migrate up

import (
	"context"
	"database/sql"
	"os"

	"github.com/spf13/cobra"

	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/storage/db"
	"estate-gap-backend/internal/shared/telemetry"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the gap_analyses schema",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(
		migrationCmd("up", "Apply all pending migrations", db.RunMigrations),
		migrationCmd("status", "Print applied state of each migration", db.MigrationStatus),
		migrationCmd("down", "Roll back the most recent migration", db.RollbackLast),
	)
}

func migrationCmd(use, short string, fn func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileMigrate).WithEnv(os.LookupEnv))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := fn(ctx, sqlDB); err != nil {
				return err
			}
			telemetry.Info("migrate.done", map[string]any{"command": use})
			return nil
		},
	}
}

func main() {
	cfg := config.Load()
	telemetry.Setup(cfg.LogLevel)
	defer telemetry.Sync()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
