package main

import (
	"nusantara-erp/pkg/database/postgresql"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations",
}

func gooseCommand(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgresql.Goose(cmd.Context(), app.db, name, app.logger)
		},
	}
}

func init() {
	migrateCmd.AddCommand(
		gooseCommand("up", "Apply all pending migrations"),
		gooseCommand("down", "Roll back the latest migration"),
		gooseCommand("status", "Print the migration status"),
	)
}
