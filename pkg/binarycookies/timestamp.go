package binarycookies

import "time"

// cocoaEpochOffset is the number of seconds between the Unix epoch and
// the Cocoa reference date, 2001-01-01T00:00:00Z.
const cocoaEpochOffset = 978307200

// cocoaTimestamp converts a time to seconds since the Cocoa reference
// date. Times before the Unix epoch collapse to 0, matching the consumer.
func cocoaTimestamp(t time.Time) float64 {
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return float64(unix - cocoaEpochOffset)
}
