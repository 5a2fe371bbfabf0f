package btree

import (
	"bytes"

	"grovedb/pkg/dberr"
	"grovedb/pkg/pager"
	"grovedb/pkg/varint"
)

// magicPrefix is the fixed 16-byte literal every valid file begins with
// (spec §6, offset 0x00).
var magicPrefix = []byte("SQLite format 3\x00")

// literal612 is the fixed 6-byte literal at offset 0x12.
var literal612 = []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}

// rejectedPageCacheSize is the one page-cache-size value a valid header
// must never carry (spec §9 note 3: unexplained upstream, retained as a
// literal check).
const rejectedPageCacheSize = 20000

// Header is the parsed form of the first HeaderSize bytes of page 1.
type Header struct {
	PageSize          uint16
	FileChangeCounter uint32
	SchemaVersion     uint32
	PageCacheSize     uint32
	UserCookie        uint32
}

// Encode writes h into a fresh HeaderSize-byte buffer, filling in every
// fixed literal spec §6 mandates.
func (h Header) Encode() [pager.HeaderSize]byte {
	var buf [pager.HeaderSize]byte

	copy(buf[0x00:0x10], magicPrefix)
	varint.PutUint16(buf[0x10:0x12], h.PageSize)
	copy(buf[0x12:0x18], literal612)
	varint.PutUint32(buf[0x18:0x1C], h.FileChangeCounter)
	// 0x1C: unused (0)
	// 0x20, 0x24: {0,0,0,0}
	varint.PutUint32(buf[0x28:0x2C], h.SchemaVersion)
	varint.PutUint32(buf[0x2C:0x30], 1)
	varint.PutUint32(buf[0x30:0x34], h.PageCacheSize)
	// 0x34: {0,0,0,0}
	varint.PutUint32(buf[0x38:0x3C], 1)
	varint.PutUint32(buf[0x3C:0x40], h.UserCookie)
	// 0x40: {0,0,0,0}
	// 0x44..0x60: unused

	return buf
}

// DecodeHeader parses and validates a raw header buffer, returning
// ECORRUPTHEADER on any mismatch against spec §6's fixed literals.
func DecodeHeader(buf [pager.HeaderSize]byte) (Header, error) {
	fail := func(detail string) (Header, error) {
		return Header{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "DecodeHeader", detail)
	}

	if !bytes.Equal(buf[0x00:0x10], magicPrefix) {
		return fail("bad magic prefix")
	}
	if !bytes.Equal(buf[0x12:0x18], literal612) {
		return fail("bad literal at 0x12")
	}
	if !allZero(buf[0x1C:0x20]) || !allZero(buf[0x20:0x24]) || !allZero(buf[0x24:0x28]) {
		return fail("bad unused/reserved field")
	}
	if varint.Uint32(buf[0x2C:0x30]) != 1 {
		return fail("bad literal at 0x2C")
	}
	if !allZero(buf[0x34:0x38]) {
		return fail("bad unused field at 0x34")
	}
	if varint.Uint32(buf[0x38:0x3C]) != 1 {
		return fail("bad literal at 0x38")
	}
	if !allZero(buf[0x40:0x44]) {
		return fail("bad unused field at 0x40")
	}

	pageCacheSize := varint.Uint32(buf[0x30:0x34])
	if pageCacheSize == rejectedPageCacheSize {
		return fail("page cache size is the rejected sentinel value 20000")
	}

	return Header{
		PageSize:          varint.Uint16(buf[0x10:0x12]),
		FileChangeCounter: varint.Uint32(buf[0x18:0x1C]),
		SchemaVersion:     varint.Uint32(buf[0x28:0x2C]),
		PageCacheSize:     pageCacheSize,
		UserCookie:        varint.Uint32(buf[0x3C:0x40]),
	}, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
