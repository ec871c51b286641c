//go:build darwin

package hwid

import (
	"net"
	"strings"
)

// machineID returns the MAC address of the first non-loopback hardware
// interface, or a hostname-based fallback when none is available.
func machineID() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			mac := strings.ToUpper(strings.ReplaceAll(iface.HardwareAddr.String(), ":", ""))
			return "ROKIO-MAC-" + mac
		}
	}
	return fallbackID("ROKIO-FALLBACK")
}
