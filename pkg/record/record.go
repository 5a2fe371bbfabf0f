// Package record implements the tuple codec DBM's MakeRecord/Column
// opcodes rely on: a typed row is serialized as a small header of
// per-column type codes followed by the concatenated column bytes (spec
// §3 "Record"), and stored verbatim as a table-leaf cell's payload.
package record

import (
	"fmt"

	"grovedb/pkg/dberr"
	"grovedb/pkg/varint"
)

// Kind identifies a column's runtime type.
type Kind byte

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindText
)

// Value is one column of a decoded record.
type Value struct {
	Kind Kind
	Int  int32
	Text []byte
}

func Null() Value             { return Value{Kind: KindNull} }
func Int8(v int8) Value       { return Value{Kind: KindInt8, Int: int32(v)} }
func Int16(v int16) Value     { return Value{Kind: KindInt16, Int: int32(v)} }
func Int32(v int32) Value     { return Value{Kind: KindInt32, Int: v} }
func Text(v []byte) Value     { return Value{Kind: KindText, Text: v} }
func TextString(v string) Value { return Text([]byte(v)) }

// typeCode returns the on-disk column type code (spec §3): 0 for null, 1
// for int8, 2 for int16, 4 for int32, or an odd number >= 13 for text,
// encoding the text's byte length as (code-13)/2.
func (v Value) typeCode() byte {
	switch v.Kind {
	case KindNull:
		return 0
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	case KindText:
		return byte(13 + 2*len(v.Text))
	default:
		return 0
	}
}

func (v Value) payloadSize() int {
	switch v.Kind {
	case KindNull:
		return 0
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	case KindText:
		return len(v.Text)
	default:
		return 0
	}
}

// Encode serializes values into a single record buffer suitable for use
// as a table-leaf cell's payload. A text column longer than 121 bytes does
// not fit a single-byte type code and is rejected with EMISUSE.
func Encode(values []Value) ([]byte, error) {
	headerLen := 1 + len(values)
	if headerLen > 0xFF {
		return nil, dberr.New(dberr.EMISUSE, "record", "Encode", "too many columns for a single-byte header length")
	}

	size := headerLen
	for _, v := range values {
		if v.Kind == KindText && 13+2*len(v.Text) > 0xFF {
			return nil, dberr.New(dberr.EMISUSE, "record", "Encode", "text column too long for a single-byte type code")
		}
		size += v.payloadSize()
	}

	buf := make([]byte, size)
	buf[0] = byte(headerLen)
	for i, v := range values {
		buf[1+i] = v.typeCode()
	}

	pos := headerLen
	for _, v := range values {
		switch v.Kind {
		case KindNull:
			// no payload bytes
		case KindInt8:
			buf[pos] = byte(v.Int)
			pos++
		case KindInt16:
			varint.PutUint16(buf[pos:pos+2], uint16(int16(v.Int)))
			pos += 2
		case KindInt32:
			varint.PutUint32(buf[pos:pos+4], uint32(v.Int))
			pos += 4
		case KindText:
			copy(buf[pos:pos+len(v.Text)], v.Text)
			pos += len(v.Text)
		}
	}

	return buf, nil
}

// Decode parses a record buffer produced by Encode (or read back from a
// table-leaf cell payload).
func Decode(buf []byte) ([]Value, error) {
	if len(buf) < 1 {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "empty record buffer")
	}
	headerLen := int(buf[0])
	if headerLen < 1 || headerLen > len(buf) {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "record header length out of range")
	}
	codes := buf[1:headerLen]
	values := make([]Value, len(codes))

	pos := headerLen
	for i, code := range codes {
		switch {
		case code == 0:
			values[i] = Value{Kind: KindNull}
		case code == 1:
			if pos+1 > len(buf) {
				return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "truncated int8 column")
			}
			values[i] = Value{Kind: KindInt8, Int: int32(int8(buf[pos]))}
			pos++
		case code == 2:
			if pos+2 > len(buf) {
				return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "truncated int16 column")
			}
			values[i] = Value{Kind: KindInt16, Int: int32(int16(varint.Uint16(buf[pos : pos+2])))}
			pos += 2
		case code == 4:
			if pos+4 > len(buf) {
				return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "truncated int32 column")
			}
			values[i] = Value{Kind: KindInt32, Int: int32(varint.Uint32(buf[pos : pos+4]))}
			pos += 4
		case code >= 13 && code%2 == 1:
			n := int(code-13) / 2
			if pos+n > len(buf) {
				return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", "truncated text column")
			}
			text := make([]byte, n)
			copy(text, buf[pos:pos+n])
			values[i] = Value{Kind: KindText, Text: text}
			pos += n
		default:
			return nil, dberr.New(dberr.ECORRUPTHEADER, "record", "Decode", fmt.Sprintf("unknown column type code %d", code))
		}
	}

	return values, nil
}
