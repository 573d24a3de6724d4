package types

import (
	"encoding/binary"
	"testing"
)

func TestSTInfoRoundtrip(t *testing.T) {
	tests := []struct {
		bind SymBind
		typ  SymType
	}{
		{STB_LOCAL, STT_NOTYPE},
		{STB_GLOBAL, STT_FUNC},
		{STB_WEAK, STT_GNU_IFUNC},
	}
	for _, tt := range tests {
		info := ST_INFO(tt.bind, tt.typ)
		if got := ST_BIND(info); got != tt.bind {
			t.Errorf("ST_BIND(ST_INFO(%v, %v)) = %v; want %v", tt.bind, tt.typ, got, tt.bind)
		}
		if got := ST_TYPE(info); got != tt.typ {
			t.Errorf("ST_TYPE(ST_INFO(%v, %v)) = %v; want %v", tt.bind, tt.typ, got, tt.typ)
		}
	}
}

func TestSTVisibilityMasksOtherBits(t *testing.T) {
	// st_other's upper bits are reserved; ST_VISIBILITY must ignore them.
	if got := ST_VISIBILITY(0xfc | byte(STV_HIDDEN)); got != STV_HIDDEN {
		t.Errorf("ST_VISIBILITY(0xfc|STV_HIDDEN) = %v; want STV_HIDDEN", got)
	}
}

func TestSymRoundtrip64(t *testing.T) {
	want := Sym{
		Name: 42, Info: ST_INFO(STB_GLOBAL, STT_FUNC), Other: byte(STV_DEFAULT),
		Shndx: 7, Value: 0x4010a0, Size: 128,
	}
	buf := make([]byte, Sym64Size)
	want.Put64(buf, binary.LittleEndian)

	got := DecodeSym64(buf, binary.LittleEndian)
	if got != want {
		t.Errorf("DecodeSym64(Put64(want)) = %+v; want %+v", got, want)
	}
	if got.Bind() != STB_GLOBAL || got.Type() != STT_FUNC {
		t.Errorf("Bind/Type after roundtrip = %v/%v; want GLOBAL/FUNC", got.Bind(), got.Type())
	}
}

func TestSymRoundtrip32(t *testing.T) {
	want := Sym{
		Name: 3, Info: ST_INFO(STB_LOCAL, STT_OBJECT), Other: byte(STV_HIDDEN),
		Shndx: 2, Value: 0x1000, Size: 4,
	}
	buf := make([]byte, Sym32Size)
	want.Put32(buf, binary.BigEndian)

	got := DecodeSym32(buf, binary.BigEndian)
	if got != want {
		t.Errorf("DecodeSym32(Put32(want)) = %+v; want %+v", got, want)
	}
}
