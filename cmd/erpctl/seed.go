package main

import (
	"errors"

	"nusantara-erp/seeders"

	"github.com/spf13/cobra"
)

var seedFlags struct {
	admin        bool
	subsidiaries bool
	projects     bool
	all          bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with initial data",
	Long: `Seeds are idempotent and can be re-run safely.

Examples:
  erpctl seed --admin
  erpctl seed --subsidiaries --projects
  erpctl seed --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := seedFlags
		if !f.admin && !f.subsidiaries && !f.projects && !f.all {
			return errors.New("choose at least one of --admin, --subsidiaries, --projects or --all")
		}
		ctx := cmd.Context()

		if f.all || f.admin {
			if err := seeders.SeedAdmin(ctx, app.db, app.cfg.Seeder, app.logger); err != nil {
				return err
			}
		}
		if f.all || f.subsidiaries {
			if err := seeders.SeedSubsidiaries(ctx, app.db, app.logger); err != nil {
				return err
			}
		}
		if f.all || f.projects {
			if err := seeders.SeedProjects(ctx, app.db, app.logger); err != nil {
				return err
			}
		}
		app.logger.Info("seeding finished")
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedFlags.admin, "admin", false, "create the superadmin from ADMIN_USERNAME/ADMIN_EMAIL/ADMIN_PASSWORD")
	seedCmd.Flags().BoolVar(&seedFlags.subsidiaries, "subsidiaries", false, "create the NUSANTARA GROUP subsidiaries")
	seedCmd.Flags().BoolVar(&seedFlags.projects, "projects", false, "create demo projects with approved RAB items")
	seedCmd.Flags().BoolVar(&seedFlags.all, "all", false, "run every seeder")
}
