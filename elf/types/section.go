package types

import (
	"encoding/binary"
	"strings"
)

// SectionType is sh_type.
type SectionType uint32

const (
	SHT_NULL           SectionType = 0
	SHT_PROGBITS       SectionType = 1
	SHT_SYMTAB         SectionType = 2
	SHT_STRTAB         SectionType = 3
	SHT_RELA           SectionType = 4
	SHT_HASH           SectionType = 5
	SHT_DYNAMIC        SectionType = 6
	SHT_NOTE           SectionType = 7
	SHT_NOBITS         SectionType = 8
	SHT_REL            SectionType = 9
	SHT_SHLIB          SectionType = 10
	SHT_DYNSYM         SectionType = 11
	SHT_INIT_ARRAY     SectionType = 14
	SHT_FINI_ARRAY     SectionType = 15
	SHT_PREINIT_ARRAY  SectionType = 16
	SHT_GROUP          SectionType = 17
	SHT_SYMTAB_SHNDX   SectionType = 18
	SHT_GNU_ATTRIBUTES SectionType = 0x6ffffff5
	SHT_GNU_HASH       SectionType = 0x6ffffff6
	SHT_GNU_VERDEF     SectionType = 0x6ffffffd
	SHT_GNU_VERNEED    SectionType = 0x6ffffffe
	SHT_GNU_VERSYM     SectionType = 0x6fffffff
)

var shtStrings = []IntName{
	{uint32(SHT_NULL), "SHT_NULL"},
	{uint32(SHT_PROGBITS), "SHT_PROGBITS"},
	{uint32(SHT_SYMTAB), "SHT_SYMTAB"},
	{uint32(SHT_STRTAB), "SHT_STRTAB"},
	{uint32(SHT_RELA), "SHT_RELA"},
	{uint32(SHT_HASH), "SHT_HASH"},
	{uint32(SHT_DYNAMIC), "SHT_DYNAMIC"},
	{uint32(SHT_NOTE), "SHT_NOTE"},
	{uint32(SHT_NOBITS), "SHT_NOBITS"},
	{uint32(SHT_REL), "SHT_REL"},
	{uint32(SHT_SHLIB), "SHT_SHLIB"},
	{uint32(SHT_DYNSYM), "SHT_DYNSYM"},
	{uint32(SHT_INIT_ARRAY), "SHT_INIT_ARRAY"},
	{uint32(SHT_FINI_ARRAY), "SHT_FINI_ARRAY"},
	{uint32(SHT_PREINIT_ARRAY), "SHT_PREINIT_ARRAY"},
	{uint32(SHT_GROUP), "SHT_GROUP"},
	{uint32(SHT_SYMTAB_SHNDX), "SHT_SYMTAB_SHNDX"},
	{uint32(SHT_GNU_ATTRIBUTES), "SHT_GNU_ATTRIBUTES"},
	{uint32(SHT_GNU_HASH), "SHT_GNU_HASH"},
	{uint32(SHT_GNU_VERDEF), "SHT_GNU_VERDEF"},
	{uint32(SHT_GNU_VERNEED), "SHT_GNU_VERNEED"},
	{uint32(SHT_GNU_VERSYM), "SHT_GNU_VERSYM"},
}

func (t SectionType) String() string { return StringName(uint32(t), shtStrings, false) }

// SectionFlag is sh_flags.
type SectionFlag uint64

const (
	SHF_WRITE            SectionFlag = 0x1
	SHF_ALLOC            SectionFlag = 0x2
	SHF_EXECINSTR        SectionFlag = 0x4
	SHF_MERGE            SectionFlag = 0x10
	SHF_STRINGS          SectionFlag = 0x20
	SHF_INFO_LINK        SectionFlag = 0x40
	SHF_LINK_ORDER       SectionFlag = 0x80
	SHF_GROUP            SectionFlag = 0x200
	SHF_TLS              SectionFlag = 0x400
	SHF_COMPRESSED       SectionFlag = 0x800
)

func (f SectionFlag) Write() bool     { return f&SHF_WRITE != 0 }
func (f SectionFlag) Alloc() bool     { return f&SHF_ALLOC != 0 }
func (f SectionFlag) Exec() bool      { return f&SHF_EXECINSTR != 0 }
func (f SectionFlag) Merge() bool     { return f&SHF_MERGE != 0 }
func (f SectionFlag) Strings() bool   { return f&SHF_STRINGS != 0 }
func (f SectionFlag) InfoLink() bool  { return f&SHF_INFO_LINK != 0 }
func (f SectionFlag) TLS() bool       { return f&SHF_TLS != 0 }
func (f SectionFlag) Compressed() bool { return f&SHF_COMPRESSED != 0 }

// List returns the set flag names.
func (f SectionFlag) List() []string {
	var out []string
	for _, p := range []struct {
		f SectionFlag
		s string
	}{
		{SHF_WRITE, "WRITE"}, {SHF_ALLOC, "ALLOC"}, {SHF_EXECINSTR, "EXECINSTR"},
		{SHF_MERGE, "MERGE"}, {SHF_STRINGS, "STRINGS"}, {SHF_INFO_LINK, "INFO_LINK"},
		{SHF_LINK_ORDER, "LINK_ORDER"}, {SHF_GROUP, "GROUP"}, {SHF_TLS, "TLS"},
		{SHF_COMPRESSED, "COMPRESSED"},
	} {
		if f&p.f != 0 {
			out = append(out, p.s)
		}
	}
	return out
}

func (f SectionFlag) String() string { return strings.Join(f.List(), "|") }

// Special section indices, SHN_*.
const (
	SHN_UNDEF     = 0
	SHN_LORESERVE = 0xff00
	SHN_ABS       = 0xfff1
	SHN_COMMON    = 0xfff2
)

const (
	Section32Size = 40
	Section64Size = 64
)

// Section32 is Elf32_Shdr.
type Section32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Off       uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

// Section64 is Elf64_Shdr.
type Section64 struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// SectionHeader is the class/endian-normalized section-header
// contract.
type SectionHeader struct {
	Name      uint32
	Type      SectionType
	Flags     SectionFlag
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

func DecodeSection32(b []byte, order binary.ByteOrder) SectionHeader {
	return SectionHeader{
		Name:      order.Uint32(b[0:]),
		Type:      SectionType(order.Uint32(b[4:])),
		Flags:     SectionFlag(order.Uint32(b[8:])),
		Addr:      uint64(order.Uint32(b[12:])),
		Off:       uint64(order.Uint32(b[16:])),
		Size:      uint64(order.Uint32(b[20:])),
		Link:      order.Uint32(b[24:]),
		Info:      order.Uint32(b[28:]),
		Addralign: uint64(order.Uint32(b[32:])),
		Entsize:   uint64(order.Uint32(b[36:])),
	}
}

func DecodeSection64(b []byte, order binary.ByteOrder) SectionHeader {
	return SectionHeader{
		Name:      order.Uint32(b[0:]),
		Type:      SectionType(order.Uint32(b[4:])),
		Flags:     SectionFlag(order.Uint64(b[8:])),
		Addr:      order.Uint64(b[16:]),
		Off:       order.Uint64(b[24:]),
		Size:      order.Uint64(b[32:]),
		Link:      order.Uint32(b[40:]),
		Info:      order.Uint32(b[44:]),
		Addralign: order.Uint64(b[48:]),
		Entsize:   order.Uint64(b[56:]),
	}
}

// Put64 encodes sh as an Elf64_Shdr into b.
func (sh *SectionHeader) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], sh.Name)
	order.PutUint32(b[4:], uint32(sh.Type))
	order.PutUint64(b[8:], uint64(sh.Flags))
	order.PutUint64(b[16:], sh.Addr)
	order.PutUint64(b[24:], sh.Off)
	order.PutUint64(b[32:], sh.Size)
	order.PutUint32(b[40:], sh.Link)
	order.PutUint32(b[44:], sh.Info)
	order.PutUint64(b[48:], sh.Addralign)
	order.PutUint64(b[56:], sh.Entsize)
	return Section64Size
}

// Put32 encodes sh as an Elf32_Shdr into b.
func (sh *SectionHeader) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], sh.Name)
	order.PutUint32(b[4:], uint32(sh.Type))
	order.PutUint32(b[8:], uint32(sh.Flags))
	order.PutUint32(b[12:], uint32(sh.Addr))
	order.PutUint32(b[16:], uint32(sh.Off))
	order.PutUint32(b[20:], uint32(sh.Size))
	order.PutUint32(b[24:], sh.Link)
	order.PutUint32(b[28:], sh.Info)
	order.PutUint32(b[32:], uint32(sh.Addralign))
	order.PutUint32(b[36:], uint32(sh.Entsize))
	return Section32Size
}
