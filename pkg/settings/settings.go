// Package settings handles application preferences stored as YAML in the
// data directory. A missing file yields defaults; unknown fields are
// preserved through load/save by the struct covering the full schema.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file name inside the data directory.
const FileName = "settings.yaml"

// Allowed values for enum-like settings.
var (
	autoLockTimeouts = []string{"never", "1min", "5min", "15min"}
	themes           = []string{"dark", "light", "system"}
	accentColors     = []string{"red", "orange", "yellow", "green", "teal",
		"blue", "indigo", "purple", "pink"}
	launcherPreferences = []string{"default", "bloxstrap", "fishstrap",
		"froststrap", "client"}
)

// ErrInvalidSetting indicates a value outside the allowed set.
var ErrInvalidSetting = errors.New("settings: invalid value")

// FavoriteGame is a pinned game entry.
type FavoriteGame struct {
	ID        string  `yaml:"id"`
	PlaceID   uint64  `yaml:"placeId"`
	Name      string  `yaml:"name"`
	Thumbnail *string `yaml:"thumbnail,omitempty"`
	AddedAt   int64   `yaml:"addedAt"`
}

// Settings holds all user preferences.
type Settings struct {
	AutoLockTimeout string `yaml:"autoLockTimeout"`
	LaunchOnStartup bool   `yaml:"launchOnStartup"`
	AlwaysOnTop     bool   `yaml:"alwaysOnTop"`

	Theme       string `yaml:"theme"`
	CompactMode bool   `yaml:"compactMode"`
	AccentColor string `yaml:"accentColor"`

	MultiInstance        bool   `yaml:"multiInstance"`
	LauncherPreference   string `yaml:"launcherPreference"`
	QuarantineInstallers bool   `yaml:"quarantineInstallers"`
	SaveLogs             bool   `yaml:"saveLogs"`
	ForceHandleClosure   bool   `yaml:"forceHandleClosure"`
	LowCPUMode           bool   `yaml:"lowCpuMode"`

	FavoriteGames []FavoriteGame `yaml:"favoriteGames,omitempty"`
}

// Default returns the out-of-the-box settings.
func Default() *Settings {
	return &Settings{
		AutoLockTimeout:    "never",
		Theme:              "dark",
		AccentColor:        "red",
		LauncherPreference: "default",
	}
}

// Validate checks enum-like fields against their allowed values.
func (s *Settings) Validate() error {
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"autoLockTimeout", s.AutoLockTimeout, autoLockTimeouts},
		{"theme", s.Theme, themes},
		{"accentColor", s.AccentColor, accentColors},
		{"launcherPreference", s.LauncherPreference, launcherPreferences},
	}
	for _, check := range checks {
		if !contains(check.allowed, check.value) {
			return fmt.Errorf("%w: %s %q (allowed: %v)",
				ErrInvalidSetting, check.field, check.value, check.allowed)
		}
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Load reads settings from dir, returning defaults when no file exists.
// Empty enum fields from older files fall back to their defaults.
func Load(dir string) (*Settings, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("settings: failed to read file: %w", err)
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("settings: failed to parse file: %w", err)
	}

	defaults := Default()
	if settings.AutoLockTimeout == "" {
		settings.AutoLockTimeout = defaults.AutoLockTimeout
	}
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}
	if settings.AccentColor == "" {
		settings.AccentColor = defaults.AccentColor
	}
	if settings.LauncherPreference == "" {
		settings.LauncherPreference = defaults.LauncherPreference
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save validates and writes settings to dir with restrictive permissions.
func Save(dir string, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("settings: failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("settings: failed to serialize: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0600); err != nil {
		return fmt.Errorf("settings: failed to write file: %w", err)
	}
	return nil
}

// Reset writes defaults and returns them.
func Reset(dir string) (*Settings, error) {
	settings := Default()
	if err := Save(dir, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
