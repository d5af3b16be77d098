package common

import (
	"encoding/binary"
	"testing"
)

func TestSliceToBytes(t *testing.T) {
	if got := SliceToBytes([]uint32{}); got != nil {
		t.Errorf("expected nil for an empty slice, got %v", got)
	}

	values := []uint32{1, 0x01020304}
	got := SliceToBytes(values)
	if len(got) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(got))
	}
	if v := binary.NativeEndian.Uint32(got[4:]); v != values[1] {
		t.Errorf("expected %#x, got %#x", values[1], v)
	}

	// The result is a view, not a copy.
	values[0] = 7
	if v := binary.NativeEndian.Uint32(got); v != 7 {
		t.Errorf("expected the view to see the write, got %d", v)
	}
}

func TestLittleEndianHost(t *testing.T) {
	got := SliceToBytes([]uint16{0x0102})
	if LittleEndianHost != (got[0] == 0x02) {
		t.Errorf("expected LittleEndianHost %v to match byte order %v", LittleEndianHost, got)
	}
}
