package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Flags for vault export
var (
	exportOutput string
)

// Flags for vault import
var (
	importMerge bool
)

// Flags for vault clear
var (
	clearForce bool
)

// vaultCmd is the parent command for whole-vault operations
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Export, import, or clear the vault",
}

// vaultExportCmd writes the raw vault file for backup
var vaultExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the vault for backup",
	Long: `Exports the raw vault file. Tokens stay encrypted; the backup can
only be imported on this machine with this master password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		content, err := v.ExportRaw()
		if err != nil {
			return fmt.Errorf("failed to export vault: %w", err)
		}

		if exportOutput == "" {
			fmt.Print(content)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		fmt.Printf("Vault exported to %s\n", exportOutput)
		return nil
	},
}

// vaultImportCmd restores accounts from a backup
var vaultImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import accounts from a vault backup",
	Long: `Imports accounts from a backup produced by 'vault export'. Accounts
the current key cannot decrypt are skipped. By default the stored list is
replaced; --merge keeps existing accounts and adds new ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		count, err := v.Import(string(data), importMerge)
		if err != nil {
			return fmt.Errorf("failed to import vault: %w", err)
		}

		fmt.Printf("Imported %d accounts from backup\n", count)
		return nil
	},
}

// vaultClearCmd removes every account
var vaultClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all accounts from the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		accounts, err := v.LoadAccounts()
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts to remove")
			return nil
		}

		if !clearForce {
			if !confirm(fmt.Sprintf("This will remove %d accounts", len(accounts))) {
				fmt.Println("Aborted")
				return nil
			}
		}

		if err := v.ClearAccounts(); err != nil {
			return fmt.Errorf("failed to clear vault: %w", err)
		}

		fmt.Printf("Removed %d accounts\n", len(accounts))
		return nil
	},
}
