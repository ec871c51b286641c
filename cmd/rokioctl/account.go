package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rokio-app/rokioctl/internal/cli"
)

// Flags for account update
var (
	updateAlias       string
	updateDescription string
	updateFavorite    bool
)

// Flags for account token
var (
	tokenCopy bool
)

// accountCmd is the parent command for account operations
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage stored accounts",
}

// accountAddCmd validates a session token and stores the account
var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an account from a session token",
	Long: `Adds an account. The token is read from standard input, validated
against the Roblox authentication endpoint, and stored encrypted. Paste
the token with or without the .ROBLOSECURITY= prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		token, err := readToken()
		if err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("no token provided")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		profile, err := v.AddAccount(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to add account: %w", err)
		}

		fmt.Printf("Added %s (%s, user id %d)\n", profile.Username, profile.DisplayName, profile.UserID)
		return nil
	},
}

// accountListCmd lists stored accounts
var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
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
			fmt.Println("No accounts stored")
			return nil
		}

		for _, account := range cli.SortProfiles(accounts) {
			marker := " "
			if account.IsFavorite {
				marker = "*"
			}
			name := account.Username
			if account.Alias != "" {
				name = fmt.Sprintf("%s (%s)", account.Alias, account.Username)
			}
			lastPlayed := "never"
			if account.LastPlayedAt > 0 {
				lastPlayed = time.UnixMilli(account.LastPlayedAt).Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%s %-40s %-12d last played: %s\n", marker, name, account.UserID, lastPlayed)
			fmt.Printf("  id: %s\n", account.ID)
		}
		return nil
	},
}

// accountUpdateCmd edits the user-editable fields of an account
var accountUpdateCmd = &cobra.Command{
	Use:   "update [account]",
	Short: "Update an account's alias, description, or favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("alias") &&
			!cmd.Flags().Changed("description") &&
			!cmd.Flags().Changed("favorite") {
			return fmt.Errorf("nothing to update (use --alias, --description, or --favorite)")
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		accounts, err := v.LoadAccounts()
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}

		profile, err := cli.SelectProfile(accounts, args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("alias") {
			profile.Alias = updateAlias
		}
		if cmd.Flags().Changed("description") {
			profile.Description = updateDescription
		}
		if cmd.Flags().Changed("favorite") {
			profile.IsFavorite = updateFavorite
		}

		if err := v.UpdateAccount(*profile); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		fmt.Printf("Updated %s\n", profile.Username)
		return nil
	},
}

// accountRemoveCmd deletes an account
var accountRemoveCmd = &cobra.Command{
	Use:   "remove [account]",
	Short: "Remove an account from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		accounts, err := v.LoadAccounts()
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}

		profile, err := cli.SelectProfile(accounts, args[0])
		if err != nil {
			return err
		}

		if err := v.DeleteAccount(profile.ID); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}

		fmt.Printf("Removed %s\n", profile.Username)
		return nil
	},
}

// accountTokenCmd reveals an account's session token
var accountTokenCmd = &cobra.Command{
	Use:   "token [account]",
	Short: "Print or copy an account's session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		accounts, err := v.LoadAccounts()
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}

		profile, err := cli.SelectProfile(accounts, args[0])
		if err != nil {
			return err
		}

		if tokenCopy {
			if err := clipboard.WriteAll(profile.Cookie); err != nil {
				return fmt.Errorf("failed to copy token to clipboard: %w", err)
			}
			fmt.Printf("Token for %s copied to clipboard\n", profile.Username)
			return nil
		}

		fmt.Println(profile.Cookie)
		return nil
	},
}

// readToken reads a session token, hidden when stdin is a terminal.
func readToken() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Paste session token: ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(tokenBytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
