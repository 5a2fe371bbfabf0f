package varint

import "testing"

func TestUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	PutUint16(buf, 0x0102)
	if got := Uint16(buf); got != 0x0102 {
		t.Fatalf("Uint16 = %#x, want %#x", got, 0x0102)
	}
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Fatalf("PutUint16 wrote %v, want big-endian [0x01 0x02]", buf)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32(buf, 0xDEADBEEF)
	if got := Uint32(buf); got != 0xDEADBEEF {
		t.Fatalf("Uint32 = %#x, want %#x", got, 0xDEADBEEF)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 42, 127, 128, 300, 1<<21 - 1, 1 << 21, 1<<28 - 1}
	buf := make([]byte, Size)
	for _, v := range cases {
		Put(buf, v)
		if got := Get(buf); got != v {
			t.Fatalf("Get(Put(%d)) = %d", v, got)
		}
	}
}

func TestPutFixedWidth(t *testing.T) {
	buf := make([]byte, Size)
	Put(buf, 42)
	for i := 0; i < 3; i++ {
		if buf[i]&0x80 == 0 {
			t.Fatalf("byte %d missing continuation bit: %#x", i, buf[i])
		}
	}
	if buf[3]&0x80 != 0 {
		t.Fatalf("final byte should not carry a continuation bit: %#x", buf[3])
	}
}
