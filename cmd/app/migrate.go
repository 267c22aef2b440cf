package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"telegram-ecommerce-bot/internal/config"
	"telegram-ecommerce-bot/internal/infra/db/migrate"
	pg "telegram-ecommerce-bot/internal/infra/db/postgres"
	"telegram-ecommerce-bot/internal/infra/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the session database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, cfg *config.Config, db *sql.DB, _ []string) error {
		return migrate.Run(db, *logging.New(cfg.Log, cfg.Runtime.Dev))
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, _ *config.Config, db *sql.DB, _ []string) error {
		return migrate.Down(db)
	}),
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, _ *config.Config, db *sql.DB, _ []string) error {
		v, dirty, err := migrate.Version(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
		return nil
	}),
}

var migrateStepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations, or roll back when N is negative",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, _ *config.Config, db *sql.DB, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("steps: want a non-zero integer, got %q", args[0])
		}
		return migrate.Steps(db, n)
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd, migrateStepsCmd)
	rootCmd.AddCommand(migrateCmd)
}

type dbRunE func(cmd *cobra.Command, cfg *config.Config, db *sql.DB, args []string) error

// withDB loads config and opens the database around fn.
func withDB(fn dbRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		db, err := pg.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(cmd, cfg, db, args)
	}
}
