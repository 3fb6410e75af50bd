package main

import (
	"fmt"

	"officeflow-api/internal/config"
	"officeflow-api/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run all pending database migrations for the kv_store and audit_log tables`,
	RunE:  runMigrate,
}

var migrateDownSteps int

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDownSteps, "down", 0, "roll back this many migrations instead of applying")
	migrateCmd.AddCommand(migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrateConfig() (*config.Config, error) {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for migrations")
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := migrateConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if migrateDownSteps > 0 {
		fmt.Fprintf(out, "Rolling back %d migration(s)...\n", migrateDownSteps)
		if err := database.RollbackMigrations(cfg.DatabaseURL, migrateDownSteps); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Rollback completed successfully")
		return nil
	}

	fmt.Fprintln(out, "Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Fprintln(out, "✓ Migrations completed successfully")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	cfg, err := migrateConfig()
	if err != nil {
		return err
	}

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
	return nil
}
