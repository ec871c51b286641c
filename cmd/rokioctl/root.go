package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rokio-app/rokioctl/pkg/hwid"
	"github.com/rokio-app/rokioctl/pkg/roblox"
	"github.com/rokio-app/rokioctl/pkg/vault"
)

var (
	dataDir string
	v       *vault.Vault
)

var rootCmd = &cobra.Command{
	Use:   "rokioctl",
	Short: "rokioctl manages encrypted Roblox account credentials",
	Long: `A local credential manager for Roblox accounts. Session tokens are
encrypted with a key derived from the master password and this machine's
identity, so the vault file is useless on other hardware.`,
	// PersistentPreRunE runs before the root command and all subcommands.
	// This initializes the Vault object.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rokio")
		v = vault.New(dataDir, hwid.Machine{}, roblox.NewClient())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(hwidCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(cookiesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(auditCmd)

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountRemoveCmd)
	accountCmd.AddCommand(accountTokenCmd)

	accountUpdateCmd.Flags().StringVar(&updateAlias, "alias", "", "Set a display alias")
	accountUpdateCmd.Flags().StringVar(&updateDescription, "description", "", "Set a description")
	accountUpdateCmd.Flags().BoolVar(&updateFavorite, "favorite", false, "Mark as favorite")

	accountTokenCmd.Flags().BoolVar(&tokenCopy, "copy", false, "Copy the token to the clipboard instead of printing it")

	vaultCmd.AddCommand(vaultExportCmd)
	vaultCmd.AddCommand(vaultImportCmd)
	vaultCmd.AddCommand(vaultClearCmd)

	vaultExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	vaultImportCmd.Flags().BoolVar(&importMerge, "merge", false, "Merge with existing accounts instead of replacing them")
	vaultClearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")

	cookiesCmd.AddCommand(cookiesWriteCmd)
	cookiesWriteCmd.Flags().StringVarP(&cookiesOutput, "output", "o", "Cookies.binarycookies", "Output file path")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum number of events to show")
	auditListCmd.Flags().StringVar(&auditSince, "since", "", "Show events since duration (e.g., 24h)")
}

// initCmd creates a new vault
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new account vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Initializing new vault...")

		fmt.Print("Enter master password: ")
		password1, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		fmt.Print("Confirm master password: ")
		password2, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		if string(password1) != string(password2) {
			return fmt.Errorf("passwords do not match")
		}

		passwordResult := vault.ValidateMasterPassword(string(password1))
		if !passwordResult.Valid {
			return fmt.Errorf("password validation failed: %s", passwordResult.Warnings[0])
		}

		fmt.Printf("Password strength: %s\n", passwordResult.Strength)
		for _, warning := range passwordResult.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}

		if err := v.Create(string(password1)); err != nil {
			return fmt.Errorf("failed to create vault: %w", err)
		}
		defer v.Lock()

		fmt.Printf("Vault created at %s\n", v.Path())
		fmt.Println("The vault key is bound to this machine and will not unlock elsewhere.")
		return nil
	},
}

// statusCmd reports whether a vault exists and how many accounts it holds
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !v.Exists() {
			fmt.Println("No vault found. Run 'rokioctl init' to create one.")
			return nil
		}

		fmt.Printf("Vault: %s\n", filepath.Join(v.Path(), vault.VaultFileName))

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		accounts, err := v.LoadAccounts()
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}
		fmt.Printf("Accounts: %d\n", len(accounts))
		return nil
	},
}

// lockCmd discards any held key. Sessions are per-invocation, so this is
// mainly a sanity command.
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		v.Lock()
		fmt.Println("Vault locked")
		return nil
	},
}

// hwidCmd prints the machine identifier the vault key is bound to
var hwidCmd = &cobra.Command{
	Use:   "hwid",
	Short: "Show the machine identifier used for key derivation",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(hwid.Machine{}.ID())
		return nil
	},
}

// ensureUnlocked prompts for the master password and unlocks the vault.
func ensureUnlocked() error {
	if !v.IsLocked() {
		return nil
	}

	fmt.Print("Enter master password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	ok, err := v.Unlock(string(passwordBytes))
	if err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	if !ok {
		return fmt.Errorf("invalid master password")
	}
	return nil
}

// confirm asks a yes/no question, treating anything but y as no.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	return response == "y" || response == "Y"
}

// parseDuration parses a duration string like "30d", "1y", "24h"
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("duration too short: %s", s)
	}

	unit := s[len(s)-1]
	valueStr := s[:len(s)-1]

	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", valueStr)
	}

	switch unit {
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(value) * 30 * 24 * time.Hour, nil
	case 'y':
		return time.Duration(value) * 365 * 24 * time.Hour, nil
	default:
		return time.ParseDuration(s)
	}
}
