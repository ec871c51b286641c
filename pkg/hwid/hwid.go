// Package hwid derives a stable identifier for the host machine.
//
// The identifier is used exclusively as key-derivation salt material: it
// binds a vault to the machine it was created on, so copying the vault
// file to different hardware invalidates every key derived from it. This
// is intentional and not an error condition.
package hwid

import (
	"fmt"
	"os"
	"os/user"
)

// Provider returns a stable, non-empty identifier for the host machine.
// Implementations must be deterministic across process restarts.
type Provider interface {
	ID() string
}

// Machine is the default provider for the current platform. It prefers a
// hardware-derived value (MAC address on macOS, MachineGuid on Windows)
// and falls back to hostname+user identifiers when unavailable.
type Machine struct{}

// ID returns the platform machine identifier.
func (Machine) ID() string {
	return machineID()
}

// Static is a fixed-identity provider, used in tests and when callers
// need to pin key derivation to a known value.
type Static string

// ID returns the fixed identity string.
func (s Static) ID() string {
	return string(s)
}

// fallbackID builds an identifier from hostname and user name. Weaker
// than a hardware-derived value but still deterministic for a given host.
func fallbackID(prefix string) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	username := "user"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}
	return fmt.Sprintf("%s-%s-%s", prefix, hostname, username)
}
