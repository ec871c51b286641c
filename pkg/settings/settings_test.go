package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadMissingFile checks defaults come back when nothing is saved
func TestLoadMissingFile(t *testing.T) {
	settings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.AutoLockTimeout != "never" || settings.Theme != "dark" ||
		settings.AccentColor != "red" || settings.LauncherPreference != "default" {
		t.Errorf("Load() = %+v, want defaults", settings)
	}
	if settings.MultiInstance {
		t.Error("MultiInstance enabled by default")
	}
}

// TestSaveAndLoad checks a round trip preserves everything
func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	thumb := "https://cdn.example.com/game.png"
	saved := &Settings{
		AutoLockTimeout:      "5min",
		Theme:                "light",
		CompactMode:          true,
		AccentColor:          "teal",
		MultiInstance:        true,
		LauncherPreference:   "bloxstrap",
		QuarantineInstallers: true,
		SaveLogs:             true,
		FavoriteGames: []FavoriteGame{
			{ID: "fav-1", PlaceID: 920587237, Name: "Adopt Me!", Thumbnail: &thumb, AddedAt: 1700000000},
		},
	}

	if err := Save(dir, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AutoLockTimeout != "5min" || loaded.Theme != "light" ||
		!loaded.CompactMode || loaded.AccentColor != "teal" ||
		!loaded.MultiInstance || loaded.LauncherPreference != "bloxstrap" ||
		!loaded.QuarantineInstallers || !loaded.SaveLogs {
		t.Errorf("Load() = %+v, want saved values", loaded)
	}
	if len(loaded.FavoriteGames) != 1 {
		t.Fatalf("FavoriteGames length = %d, want 1", len(loaded.FavoriteGames))
	}
	game := loaded.FavoriteGames[0]
	if game.PlaceID != 920587237 || game.Name != "Adopt Me!" ||
		game.Thumbnail == nil || *game.Thumbnail != thumb {
		t.Errorf("FavoriteGames[0] = %+v", game)
	}
}

// TestSaveFileMode checks restrictive permissions
func TestSaveFileMode(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Default()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("settings file mode = %o, want 0600", info.Mode().Perm())
	}
}

// TestValidate checks enum fields
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults valid", func(s *Settings) {}, false},
		{"valid theme", func(s *Settings) { s.Theme = "system" }, false},
		{"bad theme", func(s *Settings) { s.Theme = "neon" }, true},
		{"bad timeout", func(s *Settings) { s.AutoLockTimeout = "2h" }, true},
		{"bad accent", func(s *Settings) { s.AccentColor = "mauve" }, true},
		{"bad launcher", func(s *Settings) { s.LauncherPreference = "custom" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Default()
			tt.mutate(settings)
			err := settings.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("Validate() error = %v, want ErrInvalidSetting", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

// TestLoadFillsMissingEnums checks older files without newer fields
func TestLoadFillsMissingEnums(t *testing.T) {
	dir := t.TempDir()
	partial := "theme: light\ncompactMode: true\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(partial), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Theme != "light" || !loaded.CompactMode {
		t.Errorf("Load() = %+v, want partial values applied", loaded)
	}
	if loaded.AutoLockTimeout != "never" || loaded.AccentColor != "red" {
		t.Errorf("Load() missing enums = %q, %q, want defaults",
			loaded.AutoLockTimeout, loaded.AccentColor)
	}
}

// TestReset checks reset overwrites a customized file
func TestReset(t *testing.T) {
	dir := t.TempDir()
	custom := Default()
	custom.Theme = "light"
	if err := Save(dir, custom); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reset, err := Reset(dir)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if reset.Theme != "dark" {
		t.Errorf("Reset() theme = %q, want dark", reset.Theme)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Theme != "dark" {
		t.Errorf("Load() after reset theme = %q, want dark", loaded.Theme)
	}
}

// TestLoadMalformed checks corrupt YAML fails loudly
func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("theme: [unclosed"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load() succeeded on malformed YAML")
	}
}
