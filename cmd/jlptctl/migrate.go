package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourusername/jlpt-api/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return database.MigrateDB(e.db, migrationsSource, e.log)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			version, dirty, err := database.MigrationVersion(e.db, migrationsSource)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	})

	// force снимает dirty-состояние после упавшей миграции
	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Force schema version and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := database.ForceMigrationVersion(e.db, migrationsSource, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", version)
			return nil
		},
	})

	return cmd
}

func parseVersion(arg string) (int, error) {
	version, err := strconv.Atoi(arg)
	if err != nil || version < -1 {
		return 0, fmt.Errorf("invalid migration version %q", arg)
	}
	return version, nil
}
