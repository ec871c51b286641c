package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Flags for audit list
var (
	auditLimit int
	auditSince string
)

// auditCmd is the parent command for audit operations
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
}

// auditListCmd lists audit log entries
var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if auditSince != "" {
			duration, err := parseDuration(auditSince)
			if err != nil {
				return fmt.Errorf("invalid since format: %w", err)
			}
			since = time.Now().Add(-duration)
		}

		events, err := v.AuditLogger().ListEvents(auditLimit, since)
		if err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No audit events")
			return nil
		}

		for _, event := range events {
			line := fmt.Sprintf("%s  %-22s %-7s", event.Timestamp, event.Operation, event.Result)
			if event.AccountID != "" {
				line += "  account=" + event.AccountID
			}
			if event.Error != nil {
				line += "  " + event.Error.Message
			}
			fmt.Println(line)
		}
		return nil
	},
}

// auditVerifyCmd checks the audit log's tamper-evidence chain
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log integrity chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		result, err := v.AuditLogger().Verify()
		if err != nil {
			return fmt.Errorf("failed to verify audit log: %w", err)
		}

		fmt.Printf("Records: %d total, %d verified\n", result.RecordsTotal, result.RecordsVerified)
		if result.Valid {
			fmt.Println("Audit log chain is intact")
			return nil
		}
		for _, msg := range result.Errors {
			fmt.Printf("  %s\n", msg)
		}
		return fmt.Errorf("audit log verification failed")
	},
}
