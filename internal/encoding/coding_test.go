package encoding

import "testing"

func TestFixed32RoundTrip(t *testing.T) {
	var buf [4]byte
	EncodeFixed32(buf[:], 0xdeadbeef)
	if got := DecodeFixed32(buf[:]); got != 0xdeadbeef {
		t.Fatalf("got %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestFixed64RoundTrip(t *testing.T) {
	var buf [8]byte
	EncodeFixed64(buf[:], 0x0102030405060708)
	if got := DecodeFixed64(buf[:]); got != 0x0102030405060708 {
		t.Fatalf("got %#x, want %#x", got, 0x0102030405060708)
	}
}

func TestFixed32LittleEndianByteOrder(t *testing.T) {
	var buf [4]byte
	EncodeFixed32(buf[:], 1)
	want := [4]byte{1, 0, 0, 0}
	if buf != want {
		t.Fatalf("got %v, want %v", buf, want)
	}
}
