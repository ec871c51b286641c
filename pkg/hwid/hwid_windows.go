//go:build windows

package hwid

import (
	"strings"

	"golang.org/x/sys/windows/registry"
)

// machineID returns the Windows installation GUID from the registry, or a
// hostname-based fallback when the key cannot be read.
func machineID() string {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`SOFTWARE\Microsoft\Cryptography`, registry.QUERY_VALUE)
	if err == nil {
		defer key.Close()
		if guid, _, err := key.GetStringValue("MachineGuid"); err == nil && guid != "" {
			return "ROKIO-WIN-" + strings.ReplaceAll(guid, "-", "")
		}
	}
	return fallbackID("ROKIO-FALLBACK")
}
