package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rokio-app/rokioctl/internal/cli"
	"github.com/rokio-app/rokioctl/pkg/audit"
	"github.com/rokio-app/rokioctl/pkg/binarycookies"
	"github.com/rokio-app/rokioctl/pkg/roblox"
)

// Flags for cookies write
var (
	cookiesOutput string
)

// cookiesCmd is the parent command for cookie container operations
var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Export session cookies in Safari binarycookies format",
}

// cookiesWriteCmd writes an account's session cookie as a binarycookies
// container and stamps the account's last-played time
var cookiesWriteCmd = &cobra.Command{
	Use:   "write [account]",
	Short: "Write an account's session cookie to a binarycookies file",
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

		container := &binarycookies.Container{
			Pages: []binarycookies.Page{
				{
					Cookies: []binarycookies.Cookie{
						{
							Domain:   roblox.CookieDomain,
							Name:     roblox.SecurityCookieName,
							Value:    profile.Cookie,
							Secure:   true,
							HTTPOnly: true,
						},
					},
				},
			},
		}

		if err := container.WriteFile(cookiesOutput); err != nil {
			return fmt.Errorf("failed to write cookies file: %w", err)
		}

		if err := v.TouchLastPlayed(profile.ID); err != nil {
			fmt.Printf("Warning: failed to update last played time: %v\n", err)
		}
		_ = v.AuditLogger().LogSuccess(audit.OpCookiesExport, profile.ID)

		fmt.Printf("Wrote session cookie for %s to %s\n", profile.Username, cookiesOutput)
		return nil
	},
}
