package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/pgdump"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newBackupService() *services.BackupService {
	logger := app.logger.Named("backup")
	tool := pgdump.FromConfig(app.cfg.Backup, logger)
	return services.NewBackupService(repositories.NewBackupRepository(app.db, logger), tool, tool, app.cfg.Backup, logger)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, verify and prune database backups",
}

var backupDescription string

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Dump the database to a compressed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackupService().Create(cmd.Context(), dto.BackupOptions{
			Username:    "erpctl",
			Description: backupDescription,
		})
		if err != nil {
			return err
		}
		fmt.Printf("backup #%d %s (%s) %s\n", b.ID, b.FileName, humanize.Bytes(uint64(b.FileSize.Int64)), b.Status)
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Check the checksum and gzip integrity of a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid backup id %q", args[0])
		}
		b, err := newBackupService().Verify(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("backup #%d %s\n", b.ID, b.Status)
		if b.ErrorMessage.Valid {
			fmt.Println("  ", b.ErrorMessage.String)
		}
		return nil
	},
}

var backupListLimit int

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newBackupService().List(cmd.Context(), dto.BackupFilter{Limit: backupListLimit})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tSTATUS\tSIZE\tCREATED")
		for _, b := range res.Backups {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				b.ID, b.FileName, b.Status, humanize.Bytes(uint64(b.FileSize.Int64)), humanize.Time(b.CreatedAt))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d backups\n", len(res.Backups), res.Total)
		return nil
	},
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove backups past their retention period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newBackupService().CleanupExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d backups, freed %s\n", res.DeletedCount, res.FreedSpaceFormatted)
		return nil
	},
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupDescription, "description", "", "free text stored with the backup")
	backupListCmd.Flags().IntVar(&backupListLimit, "limit", 20, "number of rows to show")
	backupCmd.AddCommand(backupCreateCmd, backupVerifyCmd, backupListCmd, backupCleanupCmd)
}
