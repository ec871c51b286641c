package binarycookies

import (
	"encoding/binary"
	"math"
	"time"
)

// Cookie record constants.
const (
	// recordVersion is the cookie record format version.
	recordVersion = 1

	// recordHeaderSize is the size of the fixed record header; string
	// data begins immediately after it.
	recordHeaderSize = 56

	// defaultExpiry is applied when no expiration is set.
	defaultExpiry = 30 * 24 * time.Hour
)

// Flag bitmask values.
const (
	flagSecure   = 1 << 0
	flagHTTPOnly = 1 << 2
)

// Cookie is a single credential record. Zero-value Path, Expires and
// Created fall back to "/", 30 days from build time, and build time.
type Cookie struct {
	Domain   string
	Name     string
	Path     string
	Value    string
	Secure   bool
	HTTPOnly bool
	Expires  time.Time
	Created  time.Time
}

// Build serializes the cookie record, little-endian throughout.
//
// Layout: total size, version, flags, has-port (always 0), four string
// offsets (absolute from record start), two zero offsets for the unused
// comment fields, then float64 expiration and creation timestamps on the
// Cocoa epoch, followed by the domain, name, path and value strings, each
// zero-terminated.
func (c *Cookie) Build() []byte {
	path := c.Path
	if path == "" {
		path = "/"
	}

	domain := append([]byte(c.Domain), 0)
	name := append([]byte(c.Name), 0)
	pathBytes := append([]byte(path), 0)
	value := append([]byte(c.Value), 0)

	domainOffset := uint32(recordHeaderSize)
	nameOffset := domainOffset + uint32(len(domain))
	pathOffset := nameOffset + uint32(len(name))
	valueOffset := pathOffset + uint32(len(pathBytes))
	size := valueOffset + uint32(len(value))

	var flags uint32
	if c.Secure {
		flags |= flagSecure
	}
	if c.HTTPOnly {
		flags |= flagHTTPOnly
	}

	expires := c.Expires
	if expires.IsZero() {
		expires = time.Now().Add(defaultExpiry)
	}
	created := c.Created
	if created.IsZero() {
		created = time.Now()
	}

	le := binary.LittleEndian
	buf := make([]byte, 0, size)
	buf = le.AppendUint32(buf, size)
	buf = le.AppendUint32(buf, recordVersion)
	buf = le.AppendUint32(buf, flags)
	buf = le.AppendUint32(buf, 0) // has port
	buf = le.AppendUint32(buf, domainOffset)
	buf = le.AppendUint32(buf, nameOffset)
	buf = le.AppendUint32(buf, pathOffset)
	buf = le.AppendUint32(buf, valueOffset)
	buf = le.AppendUint32(buf, 0) // comment offset
	buf = le.AppendUint32(buf, 0) // comment URL offset
	buf = le.AppendUint64(buf, math.Float64bits(cocoaTimestamp(expires)))
	buf = le.AppendUint64(buf, math.Float64bits(cocoaTimestamp(created)))
	buf = append(buf, domain...)
	buf = append(buf, name...)
	buf = append(buf, pathBytes...)
	buf = append(buf, value...)

	return buf
}
