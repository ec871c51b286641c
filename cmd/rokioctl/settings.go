package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rokio-app/rokioctl/pkg/settings"
)

// settingsCmd is the parent command for settings operations
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or reset application settings",
}

// settingsShowCmd prints the current settings as YAML
var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := settings.Load(dataDir)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(current); err != nil {
			return fmt.Errorf("failed to print settings: %w", err)
		}
		return encoder.Close()
	},
}

// settingsResetCmd restores defaults
var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := settings.Reset(dataDir); err != nil {
			return fmt.Errorf("failed to reset settings: %w", err)
		}
		fmt.Println("Settings reset to defaults")
		return nil
	},
}
