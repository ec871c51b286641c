// Package cli provides shared utilities for CLI commands.
package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rokio-app/rokioctl/pkg/vault"
)

// SelectProfiles resolves a selector against stored accounts.
// An exact profile ID wins outright. Otherwise the selector is matched
// against usernames and aliases, as a glob when it contains glob
// characters (*?[) and exactly when it does not.
func SelectProfiles(profiles []vault.Profile, selector string) ([]vault.Profile, error) {
	if _, err := filepath.Match(selector, ""); err != nil {
		return nil, fmt.Errorf("invalid selector '%s': %w", selector, err)
	}

	for _, profile := range profiles {
		if profile.ID == selector {
			return []vault.Profile{profile}, nil
		}
	}

	hasGlob := strings.ContainsAny(selector, "*?[")

	var matches []vault.Profile
	for _, profile := range profiles {
		if matchesName(profile, selector, hasGlob) {
			matches = append(matches, profile)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no accounts match '%s'", selector)
	}
	return matches, nil
}

// SelectProfile resolves a selector that must identify exactly one account.
func SelectProfile(profiles []vault.Profile, selector string) (*vault.Profile, error) {
	matches, err := SelectProfiles(profiles, selector)
	if err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, match := range matches {
			names[i] = match.Username
		}
		return nil, fmt.Errorf("selector '%s' matches %d accounts (%s), use the account id",
			selector, len(matches), strings.Join(names, ", "))
	}
	return &matches[0], nil
}

func matchesName(profile vault.Profile, selector string, hasGlob bool) bool {
	names := []string{profile.Username}
	if profile.Alias != "" {
		names = append(names, profile.Alias)
	}
	for _, name := range names {
		if hasGlob {
			if matched, _ := filepath.Match(selector, name); matched {
				return true
			}
		} else if strings.EqualFold(name, selector) {
			return true
		}
	}
	return false
}

// SortProfiles returns a copy sorted by username, favorites first.
func SortProfiles(profiles []vault.Profile) []vault.Profile {
	sorted := make([]vault.Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsFavorite != sorted[j].IsFavorite {
			return sorted[i].IsFavorite
		}
		return strings.ToLower(sorted[i].Username) < strings.ToLower(sorted[j].Username)
	})
	return sorted
}
