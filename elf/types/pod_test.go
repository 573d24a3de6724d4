package types

import (
	"encoding/binary"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r := NewReader(data, binary.LittleEndian)

	if v, err := r.U8(0); err != nil || v != 0x01 {
		t.Fatalf("U8(0) = %v, %v; want 0x01, nil", v, err)
	}
	if v, err := r.U16(0); err != nil || v != 0x0201 {
		t.Fatalf("U16(0) = %#x, %v; want 0x0201, nil", v, err)
	}
	if v, err := r.U32(0); err != nil || v != 0x04030201 {
		t.Fatalf("U32(0) = %#x, %v; want 0x04030201, nil", v, err)
	}
	if v, err := r.U64(0); err != nil || v != 0x0807060504030201 {
		t.Fatalf("U64(0) = %#x, %v; want 0x0807060504030201, nil", v, err)
	}
}

func TestReaderOutOfRange(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02}, binary.LittleEndian)
	if _, err := r.U32(0); err == nil {
		t.Fatal("U32 past end of buffer: want error, got nil")
	}
	if _, err := r.U8(-1); err == nil {
		t.Fatal("U8 at negative offset: want error, got nil")
	}
}

func TestReaderCString(t *testing.T) {
	data := append([]byte("abc\x00def"), 0)
	r := NewReader(data, binary.LittleEndian)

	s, err := r.CString(0)
	if err != nil || s != "abc" {
		t.Fatalf("CString(0) = %q, %v; want %q, nil", s, err, "abc")
	}
	s, err = r.CString(4)
	if err != nil || s != "def" {
		t.Fatalf("CString(4) = %q, %v; want %q, nil", s, err, "def")
	}

	unterminated := NewReader([]byte("no-nul"), binary.LittleEndian)
	if _, err := unterminated.CString(0); err == nil {
		t.Fatal("CString with no terminator: want error, got nil")
	}
}

func TestReaderUleb128(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
		next int64
	}{
		{"single byte", []byte{0x02}, 2, 1},
		{"three bytes", []byte{0xe5, 0x8e, 0x26}, 624485, 3},
		{"zero", []byte{0x00}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data, binary.LittleEndian)
			got, next, err := r.Uleb128(0)
			if err != nil {
				t.Fatalf("Uleb128: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = %d; want %d", got, tt.want)
			}
			if next != tt.next {
				t.Errorf("next = %d; want %d", next, tt.next)
			}
		})
	}
}

func TestSwap(t *testing.T) {
	if got := Swap16(0x0102); got != 0x0201 {
		t.Errorf("Swap16(0x0102) = %#x; want 0x0201", got)
	}
	if got := Swap32(0x01020304); got != 0x04030201 {
		t.Errorf("Swap32(0x01020304) = %#x; want 0x04030201", got)
	}
	if got := Swap64(0x0102030405060708); got != 0x0807060504030201 {
		t.Errorf("Swap64(...) = %#x; want 0x0807060504030201", got)
	}
	if got := Swap32(Swap32(0xdeadbeef)); got != 0xdeadbeef {
		t.Errorf("Swap32 is not its own inverse: got %#x", got)
	}
}
