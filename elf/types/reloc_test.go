package types

import (
	"encoding/binary"
	"testing"
)

func TestRInfo32Roundtrip(t *testing.T) {
	info := RInfo32(12345, 0xab)
	if got := RSym32(info); got != 12345 {
		t.Errorf("RSym32(RInfo32(12345, 0xab)) = %d; want 12345", got)
	}
	if got := RType32(info); got != 0xab {
		t.Errorf("RType32(RInfo32(12345, 0xab)) = %#x; want 0xab", got)
	}
}

func TestRInfo64RoundtripOrdinaryMachine(t *testing.T) {
	info := RInfo64(99, 0x1234, EM_X86_64, ELFDATA2LSB)
	if got := RSym64(info); got != 99 {
		t.Errorf("RSym64 = %d; want 99", got)
	}
	if got := RType64(info, EM_X86_64, ELFDATA2LSB); got != 0x1234 {
		t.Errorf("RType64 = %#x; want 0x1234", got)
	}
}

// EM_MIPS + ELFDATA2LSB byte-reverses the 32-bit type
// field within r_info; RInfo64/RType64 must be inverses of each other
// across that swap, and the type must NOT come back unchanged unless
// it is its own byte-reversal.
func TestRInfo64MIPS64LEQuirk(t *testing.T) {
	const typ = uint32(0x00000002)
	info := RInfo64(5, typ, EM_MIPS, ELFDATA2LSB)
	if got := RType64(info, EM_MIPS, ELFDATA2LSB); got != typ {
		t.Errorf("RType64(RInfo64(...)) = %#x; want %#x", got, typ)
	}
	if got := uint32(info); got == typ {
		t.Errorf("raw low 32 bits of r_info = %#x; want byte-reversed form of %#x, not the plain value", got, typ)
	}
	if got := uint32(info); got != Swap32(typ) {
		t.Errorf("raw low 32 bits of r_info = %#x; want %#x (Swap32(typ))", got, Swap32(typ))
	}
}

func TestRelaRoundtrip64(t *testing.T) {
	want := Rela{Offset: 0x2000, Info: RInfo64(3, 1, EM_X86_64, ELFDATA2LSB), Addend: -8}
	buf := make([]byte, Rela64Size)
	want.Put64(buf, binary.LittleEndian)

	got := DecodeRela64(buf, binary.LittleEndian)
	if got != want {
		t.Errorf("DecodeRela64(Put64(want)) = %+v; want %+v", got, want)
	}
}

func TestRelRoundtrip32(t *testing.T) {
	want := Rel{Offset: 0x100, Info: uint64(RInfo32(7, 2))}
	buf := make([]byte, Rel32Size)
	want.Put32(buf, binary.BigEndian)

	got := DecodeRel32(buf, binary.BigEndian)
	if got != want {
		t.Errorf("DecodeRel32(Put32(want)) = %+v; want %+v", got, want)
	}
}
