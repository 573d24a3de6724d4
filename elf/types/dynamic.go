package types

import "encoding/binary"

// DynTag is the d_tag field of a dynamic-table entry.
type DynTag int64

const (
	DT_NULL     DynTag = 0
	DT_NEEDED   DynTag = 1
	DT_PLTRELSZ DynTag = 2
	DT_PLTGOT   DynTag = 3
	DT_HASH     DynTag = 4
	DT_STRTAB   DynTag = 5
	DT_SYMTAB   DynTag = 6
	DT_RELA     DynTag = 7
	DT_RELASZ   DynTag = 8
	DT_RELAENT  DynTag = 9
	DT_STRSZ    DynTag = 10
	DT_SYMENT   DynTag = 11
	DT_INIT     DynTag = 12
	DT_FINI     DynTag = 13
	DT_SONAME   DynTag = 14
	DT_RPATH    DynTag = 15
	DT_SYMBOLIC DynTag = 16
	DT_REL      DynTag = 17
	DT_RELSZ    DynTag = 18
	DT_RELENT   DynTag = 19
	DT_PLTREL   DynTag = 20
	DT_DEBUG    DynTag = 21
	DT_TEXTREL  DynTag = 22
	DT_JMPREL   DynTag = 23
	DT_BIND_NOW DynTag = 24
	DT_RUNPATH  DynTag = 29
	DT_FLAGS    DynTag = 30
	DT_GNU_HASH DynTag = 0x6ffffef5
	DT_VERSYM   DynTag = 0x6ffffff0
	DT_VERDEF   DynTag = 0x6ffffffc
	DT_VERDEFNUM DynTag = 0x6ffffffd
	DT_VERNEED  DynTag = 0x6ffffffe
	DT_VERNEEDNUM DynTag = 0x6fffffff
)

var dtStrings = []IntName{
	{uint32(DT_NULL), "DT_NULL"}, {uint32(DT_NEEDED), "DT_NEEDED"},
	{uint32(DT_PLTRELSZ), "DT_PLTRELSZ"}, {uint32(DT_PLTGOT), "DT_PLTGOT"},
	{uint32(DT_HASH), "DT_HASH"}, {uint32(DT_STRTAB), "DT_STRTAB"},
	{uint32(DT_SYMTAB), "DT_SYMTAB"}, {uint32(DT_RELA), "DT_RELA"},
	{uint32(DT_RELASZ), "DT_RELASZ"}, {uint32(DT_RELAENT), "DT_RELAENT"},
	{uint32(DT_STRSZ), "DT_STRSZ"}, {uint32(DT_SYMENT), "DT_SYMENT"},
	{uint32(DT_INIT), "DT_INIT"}, {uint32(DT_FINI), "DT_FINI"},
	{uint32(DT_SONAME), "DT_SONAME"}, {uint32(DT_RPATH), "DT_RPATH"},
	{uint32(DT_SYMBOLIC), "DT_SYMBOLIC"}, {uint32(DT_REL), "DT_REL"},
	{uint32(DT_RELSZ), "DT_RELSZ"}, {uint32(DT_RELENT), "DT_RELENT"},
	{uint32(DT_PLTREL), "DT_PLTREL"}, {uint32(DT_DEBUG), "DT_DEBUG"},
	{uint32(DT_TEXTREL), "DT_TEXTREL"}, {uint32(DT_JMPREL), "DT_JMPREL"},
	{uint32(DT_BIND_NOW), "DT_BIND_NOW"}, {uint32(DT_RUNPATH), "DT_RUNPATH"},
	{uint32(DT_FLAGS), "DT_FLAGS"},
}

func (t DynTag) String() string { return StringName(uint32(t), dtStrings, false) }

// IsString reports whether d_un for this tag is a string-table offset.
func (t DynTag) IsString() bool {
	switch t {
	case DT_NEEDED, DT_SONAME, DT_RPATH, DT_RUNPATH:
		return true
	default:
		return false
	}
}

const (
	Dyn32Size = 8
	Dyn64Size = 16
)

// Dyn32 is Elf32_Dyn.
type Dyn32 struct {
	Tag int32
	Val uint32
}

// Dyn64 is Elf64_Dyn.
type Dyn64 struct {
	Tag int64
	Val uint64
}

// Dyn is the class-normalized dynamic-table entry.
type Dyn struct {
	Tag DynTag
	Val uint64
}

func DecodeDyn32(b []byte, order binary.ByteOrder) Dyn {
	return Dyn{Tag: DynTag(int32(order.Uint32(b[0:]))), Val: uint64(order.Uint32(b[4:]))}
}
func DecodeDyn64(b []byte, order binary.ByteOrder) Dyn {
	return Dyn{Tag: DynTag(int64(order.Uint64(b[0:]))), Val: order.Uint64(b[8:])}
}
func (d *Dyn) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(int32(d.Tag)))
	order.PutUint32(b[4:], uint32(d.Val))
	return Dyn32Size
}
func (d *Dyn) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint64(b[0:], uint64(int64(d.Tag)))
	order.PutUint64(b[8:], d.Val)
	return Dyn64Size
}
