package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takdim/inven-go/internal/config"
	"github.com/takdim/inven-go/internal/core/logger"
	"github.com/takdim/inven-go/internal/database/migration"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	var verbose bool

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.PersistentFlags().StringVar(&dir, "dir", "", "Directory containing the migration files (default MIGRATIONS_DIR)")
	migrateCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every migration step")

	resolve := func() (string, string) {
		dbURL, configured := config.LoadDatabase()
		if dir == "" {
			dir = configured
		}
		return dbURL, dir
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, dir := resolve()
			if err := migration.Up(dbURL, dir, verbose, logger.NewLogger("")); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return nil
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, dir := resolve()
			if err := migration.Down(dbURL, dir, steps, verbose, logger.NewLogger("")); err != nil {
				return fmt.Errorf("rollback database: %w", err)
			}
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(downCmd)

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, dir := resolve()
			version, dirty, err := migration.Version(dbURL, dir, logger.NewLogger(""))
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return migrateCmd
}
