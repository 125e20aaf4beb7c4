// Command erpctl runs migrations, seeders and maintenance jobs against the ERP database.
package main

import (
	"context"
	"fmt"
	"os"

	"nusantara-erp/pkg/config"
	"nusantara-erp/pkg/database/postgresql"
	applogger "nusantara-erp/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is the shared state built once in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
}

var app env

var rootCmd = &cobra.Command{
	Use:           "erpctl",
	Short:         "Administrative tasks for the Nusantara ERP backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		app.cfg = config.New()
		app.logger = applogger.NewLogger(app.cfg.LogLevel)

		db, err := postgresql.Connect(cmd.Context(), app.cfg.Postgres, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.db != nil {
			app.db.Close()
		}
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, backupCmd, auditCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
