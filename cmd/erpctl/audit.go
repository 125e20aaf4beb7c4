package main

import (
	"fmt"

	"nusantara-erp/internal/repositories"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/eventbus"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log maintenance",
}

var auditRetentionDays int

var auditCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete audit rows older than the retention period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days := auditRetentionDays
		if days <= 0 {
			days = app.cfg.Audit.RetentionDays
		}
		logger := app.logger.Named("audit")
		bus := eventbus.New(logger)
		defer func() { _ = bus.Close(cmd.Context()) }()

		auditService := services.NewAuditService(repositories.NewAuditLogRepository(app.db, logger), bus, logger)
		deleted, err := auditService.CleanupOldLogs(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d audit rows older than %d days\n", deleted, days)
		return nil
	},
}

func init() {
	auditCleanupCmd.Flags().IntVar(&auditRetentionDays, "days", 0, "retention in days (defaults to AUDIT_RETENTION_DAYS)")
	auditCmd.AddCommand(auditCleanupCmd)
}
