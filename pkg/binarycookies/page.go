package binarycookies

import "encoding/binary"

// pageHeader is the fixed 4-byte page header.
var pageHeader = []byte{0x00, 0x00, 0x01, 0x00}

// pageFooter is the fixed 4-byte page footer, placed between the offset
// table and the cookie records.
var pageFooter = []byte{0x00, 0x00, 0x00, 0x00}

// Page is an ordered list of cookies sharing one offset table.
type Page struct {
	Cookies []Cookie
}

// Build serializes the page.
//
// Layout: header, little-endian cookie count, one little-endian offset per
// cookie relative to the start of the page, footer, then the concatenated
// cookie records. The first record starts at 12 + 4*count, immediately
// after the footer.
func (p *Page) Build() []byte {
	offsets := make([]uint32, 0, len(p.Cookies))
	records := make([][]byte, 0, len(p.Cookies))

	offset := uint32(12 + 4*len(p.Cookies))
	total := 0
	for i := range p.Cookies {
		record := p.Cookies[i].Build()
		offsets = append(offsets, offset)
		offset += uint32(len(record))
		records = append(records, record)
		total += len(record)
	}

	buf := make([]byte, 0, 12+4*len(p.Cookies)+total)
	buf = append(buf, pageHeader...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Cookies)))
	for _, off := range offsets {
		buf = binary.LittleEndian.AppendUint32(buf, off)
	}
	buf = append(buf, pageFooter...)
	for _, record := range records {
		buf = append(buf, record...)
	}

	return buf
}
