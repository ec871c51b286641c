// Package binarycookies constructs the binary cookie container format the
// Roblox client reads as its native cookie store (the Safari
// .binarycookies layout).
//
// Only construction is implemented. Containers are pure in-memory values:
// build one, serialize it, write it, discard it. The package holds no
// state and performs no I/O beyond the explicit WriteFile helper.
//
// Layout reference: https://github.com/interstateone/BinaryCookies
package binarycookies

import (
	"encoding/binary"
	"fmt"
	"os"
)

// fileMagic is the 4-byte container magic, ASCII "cook".
var fileMagic = []byte{0x63, 0x6F, 0x6F, 0x6B}

// fileFooter is the fixed 8-byte trailer the consumer expects.
var fileFooter = []byte{0x07, 0x17, 0x20, 0x05, 0x00, 0x00, 0x00, 0x4B}

// Container is an ordered list of pages sharing one page-size table and
// one checksum.
type Container struct {
	Pages []Page
}

// Build serializes the container.
//
// Layout: magic, big-endian page count, one big-endian size per page, the
// concatenated page blocks, a big-endian checksum, then the footer. The
// checksum is the unsigned 32-bit sum of every 4th byte across all page
// blocks; wrap on overflow is part of the format.
func (c *Container) Build() []byte {
	blocks := make([][]byte, 0, len(c.Pages))
	total := 0

	var checksum uint32
	for i := range c.Pages {
		block := c.Pages[i].Build()
		for j := 0; j < len(block); j += 4 {
			checksum += uint32(block[j])
		}
		blocks = append(blocks, block)
		total += len(block)
	}

	buf := make([]byte, 0, len(fileMagic)+4+4*len(blocks)+total+4+len(fileFooter))
	buf = append(buf, fileMagic...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(blocks)))
	for _, block := range blocks {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(block)))
	}
	for _, block := range blocks {
		buf = append(buf, block...)
	}
	buf = binary.BigEndian.AppendUint32(buf, checksum)
	buf = append(buf, fileFooter...)

	return buf
}

// WriteFile serializes the container and writes it to path with
// owner-only permissions. The file is truncated if it exists.
func (c *Container) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("binarycookies: failed to open %s: %w", path, err)
	}

	if _, err := f.Write(c.Build()); err != nil {
		f.Close()
		return fmt.Errorf("binarycookies: failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("binarycookies: failed to close %s: %w", path, err)
	}
	return nil
}
