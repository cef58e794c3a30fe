package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/store"
	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/database"
)

// migrateCmd applies the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Applies the embedded schema. Safe to run repeatedly and from
several replicas at once (guarded by an advisory lock).

Example:
  go run ./cmd/nichegate migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newCLILogger(cfg)
	ctx := context.Background()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Pool, log); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Schema is up to date")
	return nil
}
