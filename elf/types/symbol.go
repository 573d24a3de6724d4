package types

import "encoding/binary"

// SymBind is the binding (high nibble of st_info).
type SymBind uint8

const (
	STB_LOCAL  SymBind = 0
	STB_GLOBAL SymBind = 1
	STB_WEAK   SymBind = 2
)

var stbStrings = []IntName{
	{uint32(STB_LOCAL), "STB_LOCAL"},
	{uint32(STB_GLOBAL), "STB_GLOBAL"},
	{uint32(STB_WEAK), "STB_WEAK"},
}

func (b SymBind) String() string { return StringName(uint32(b), stbStrings, false) }

// SymType is the type (low nibble of st_info).
type SymType uint8

const (
	STT_NOTYPE  SymType = 0
	STT_OBJECT  SymType = 1
	STT_FUNC    SymType = 2
	STT_SECTION SymType = 3
	STT_FILE    SymType = 4
	STT_COMMON  SymType = 5
	STT_TLS     SymType = 6
	STT_GNU_IFUNC SymType = 10
)

var sttStrings = []IntName{
	{uint32(STT_NOTYPE), "STT_NOTYPE"},
	{uint32(STT_OBJECT), "STT_OBJECT"},
	{uint32(STT_FUNC), "STT_FUNC"},
	{uint32(STT_SECTION), "STT_SECTION"},
	{uint32(STT_FILE), "STT_FILE"},
	{uint32(STT_COMMON), "STT_COMMON"},
	{uint32(STT_TLS), "STT_TLS"},
	{uint32(STT_GNU_IFUNC), "STT_GNU_IFUNC"},
}

func (t SymType) String() string { return StringName(uint32(t), sttStrings, false) }

// SymVis is the visibility (low 2 bits of st_other).
type SymVis uint8

const (
	STV_DEFAULT   SymVis = 0
	STV_INTERNAL  SymVis = 1
	STV_HIDDEN    SymVis = 2
	STV_PROTECTED SymVis = 3
)

func (v SymVis) String() string {
	switch v & 3 {
	case STV_DEFAULT:
		return "STV_DEFAULT"
	case STV_INTERNAL:
		return "STV_INTERNAL"
	case STV_HIDDEN:
		return "STV_HIDDEN"
	default:
		return "STV_PROTECTED"
	}
}

// ST_BIND / ST_TYPE / ST_INFO helpers, matching the C macros of the same name.
func ST_BIND(info uint8) SymBind { return SymBind(info >> 4) }
func ST_TYPE(info uint8) SymType { return SymType(info & 0xf) }
func ST_INFO(b SymBind, t SymType) uint8 { return uint8(b)<<4 | uint8(t)&0xf }
func ST_VISIBILITY(other uint8) SymVis   { return SymVis(other & 3) }

const (
	Sym32Size = 16
	Sym64Size = 24
)

// Sym32 is Elf32_Sym.
type Sym32 struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

// Sym64 is Elf64_Sym.
type Sym64 struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

// Sym is the class/endian-normalized symbol contract.
type Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

func (s Sym) Bind() SymBind { return ST_BIND(s.Info) }
func (s Sym) Type() SymType { return ST_TYPE(s.Info) }
func (s Sym) Vis() SymVis   { return ST_VISIBILITY(s.Other) }

func DecodeSym32(b []byte, order binary.ByteOrder) Sym {
	return Sym{
		Name:  order.Uint32(b[0:]),
		Value: uint64(order.Uint32(b[4:])),
		Size:  uint64(order.Uint32(b[8:])),
		Info:  b[12],
		Other: b[13],
		Shndx: order.Uint16(b[14:]),
	}
}

func DecodeSym64(b []byte, order binary.ByteOrder) Sym {
	return Sym{
		Name:  order.Uint32(b[0:]),
		Info:  b[4],
		Other: b[5],
		Shndx: order.Uint16(b[6:]),
		Value: order.Uint64(b[8:]),
		Size:  order.Uint64(b[16:]),
	}
}

func (s *Sym) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], s.Name)
	b[4] = s.Info
	b[5] = s.Other
	order.PutUint16(b[6:], s.Shndx)
	order.PutUint64(b[8:], s.Value)
	order.PutUint64(b[16:], s.Size)
	return Sym64Size
}

func (s *Sym) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], s.Name)
	order.PutUint32(b[4:], uint32(s.Value))
	order.PutUint32(b[8:], uint32(s.Size))
	b[12] = s.Info
	b[13] = s.Other
	order.PutUint16(b[14:], s.Shndx)
	return Sym32Size
}
