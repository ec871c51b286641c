//go:build !darwin && !windows

package hwid

// machineID returns a hostname+user identifier. Linux and the BSDs have
// no single canonical hardware id source, so the fallback is the
// platform value.
func machineID() string {
	return fallbackID("ROKIO-LINUX")
}
