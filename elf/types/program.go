package types

import (
	"encoding/binary"
	"strings"
)

// ProgType is p_type.
type ProgType uint32

const (
	PT_NULL    ProgType = 0
	PT_LOAD    ProgType = 1
	PT_DYNAMIC ProgType = 2
	PT_INTERP  ProgType = 3
	PT_NOTE    ProgType = 4
	PT_SHLIB   ProgType = 5
	PT_PHDR    ProgType = 6
	PT_TLS     ProgType = 7
	PT_GNU_EH_FRAME ProgType = 0x6474e550
	PT_GNU_STACK    ProgType = 0x6474e551
	PT_GNU_RELRO    ProgType = 0x6474e552
)

var ptStrings = []IntName{
	{uint32(PT_NULL), "PT_NULL"},
	{uint32(PT_LOAD), "PT_LOAD"},
	{uint32(PT_DYNAMIC), "PT_DYNAMIC"},
	{uint32(PT_INTERP), "PT_INTERP"},
	{uint32(PT_NOTE), "PT_NOTE"},
	{uint32(PT_SHLIB), "PT_SHLIB"},
	{uint32(PT_PHDR), "PT_PHDR"},
	{uint32(PT_TLS), "PT_TLS"},
	{uint32(PT_GNU_EH_FRAME), "PT_GNU_EH_FRAME"},
	{uint32(PT_GNU_STACK), "PT_GNU_STACK"},
	{uint32(PT_GNU_RELRO), "PT_GNU_RELRO"},
}

func (t ProgType) String() string { return StringName(uint32(t), ptStrings, false) }

// ProgFlag is p_flags.
type ProgFlag uint32

const (
	PF_X ProgFlag = 0x1
	PF_W ProgFlag = 0x2
	PF_R ProgFlag = 0x4
)

func (f ProgFlag) String() string {
	r, w, x := "-", "-", "-"
	if f&PF_R != 0 {
		r = "R"
	}
	if f&PF_W != 0 {
		w = "W"
	}
	if f&PF_X != 0 {
		x = "E"
	}
	return strings.Join([]string{r, w, x}, "")
}

const (
	Prog32Size = 32
	Prog64Size = 56
)

// Prog32 is Elf32_Phdr.
type Prog32 struct {
	Type   uint32
	Off    uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

// Prog64 is Elf64_Phdr.
type Prog64 struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// ProgHeader is the class/endian-normalized program-header contract.
type ProgHeader struct {
	Type   ProgType
	Flags  ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func DecodeProg32(b []byte, order binary.ByteOrder) ProgHeader {
	return ProgHeader{
		Type:   ProgType(order.Uint32(b[0:])),
		Off:    uint64(order.Uint32(b[4:])),
		Vaddr:  uint64(order.Uint32(b[8:])),
		Paddr:  uint64(order.Uint32(b[12:])),
		Filesz: uint64(order.Uint32(b[16:])),
		Memsz:  uint64(order.Uint32(b[20:])),
		Flags:  ProgFlag(order.Uint32(b[24:])),
		Align:  uint64(order.Uint32(b[28:])),
	}
}

func DecodeProg64(b []byte, order binary.ByteOrder) ProgHeader {
	return ProgHeader{
		Type:   ProgType(order.Uint32(b[0:])),
		Flags:  ProgFlag(order.Uint32(b[4:])),
		Off:    order.Uint64(b[8:]),
		Vaddr:  order.Uint64(b[16:]),
		Paddr:  order.Uint64(b[24:]),
		Filesz: order.Uint64(b[32:]),
		Memsz:  order.Uint64(b[40:]),
		Align:  order.Uint64(b[48:]),
	}
}

func (p *ProgHeader) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(p.Type))
	order.PutUint32(b[4:], uint32(p.Flags))
	order.PutUint64(b[8:], p.Off)
	order.PutUint64(b[16:], p.Vaddr)
	order.PutUint64(b[24:], p.Paddr)
	order.PutUint64(b[32:], p.Filesz)
	order.PutUint64(b[40:], p.Memsz)
	order.PutUint64(b[48:], p.Align)
	return Prog64Size
}

func (p *ProgHeader) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(p.Type))
	order.PutUint32(b[4:], uint32(p.Off))
	order.PutUint32(b[8:], uint32(p.Vaddr))
	order.PutUint32(b[12:], uint32(p.Paddr))
	order.PutUint32(b[16:], uint32(p.Filesz))
	order.PutUint32(b[20:], uint32(p.Memsz))
	order.PutUint32(b[24:], uint32(p.Flags))
	order.PutUint32(b[28:], uint32(p.Align))
	return Prog32Size
}
