package dbm

import (
	"bytes"

	"grovedb/pkg/dberr"
	"grovedb/pkg/record"
)

// RegKind identifies what a register currently holds (spec §4.3: "null,
// integer, string, or binary record").
type RegKind byte

const (
	RegNull RegKind = iota
	RegInt
	RegText
	RegRecord
)

// Reg is one machine register's value. Text holds either the string
// payload (RegText) or the encoded record bytes (RegRecord).
type Reg struct {
	Kind RegKind
	Int  int32
	Text []byte
}

func regFromValue(v record.Value) Reg {
	switch v.Kind {
	case record.KindNull:
		return Reg{Kind: RegNull}
	case record.KindText:
		return Reg{Kind: RegText, Text: v.Text}
	default:
		return Reg{Kind: RegInt, Int: v.Int}
	}
}

// asColumnValue converts a register into the record.Value used when
// MakeRecord serializes it, choosing the narrowest integer width that
// preserves the value (int8, then int16, then int32).
func (r Reg) asColumnValue() record.Value {
	switch r.Kind {
	case RegNull:
		return record.Null()
	case RegText, RegRecord:
		return record.Text(r.Text)
	case RegInt:
		switch {
		case r.Int >= -128 && r.Int <= 127:
			return record.Int8(int8(r.Int))
		case r.Int >= -32768 && r.Int <= 32767:
			return record.Int16(int16(r.Int))
		default:
			return record.Int32(r.Int)
		}
	default:
		return record.Null()
	}
}

// compare orders two registers for the Eq/Ne/Lt/Le/Gt/Ge opcodes. Null
// compares less than any non-null value and equal to another null.
// Mixing RegInt and RegText is a program error.
func compare(a, b Reg) (int, error) {
	if a.Kind == RegNull || b.Kind == RegNull {
		switch {
		case a.Kind == RegNull && b.Kind == RegNull:
			return 0, nil
		case a.Kind == RegNull:
			return -1, nil
		default:
			return 1, nil
		}
	}
	if a.Kind == RegInt && b.Kind == RegInt {
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Kind == RegText && b.Kind == RegText {
		return bytes.Compare(a.Text, b.Text), nil
	}
	return 0, dberr.New(dberr.EMISUSE, "dbm", "compare", "incomparable register kinds")
}
