package types

import "encoding/binary"

const (
	Rel32Size  = 8
	Rel64Size  = 16
	Rela32Size = 12
	Rela64Size = 24
)

// Rel is the class-normalized REL entry (offset + packed info).
type Rel struct {
	Offset uint64
	Info   uint64 // packed symbol index (high bits) + type (low bits), class-width dependent
}

// Rela is the class-normalized RELA entry, REL plus an explicit addend.
type Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

// RSym32/RType32 split a 32-bit r_info.
func RSym32(info uint32) uint32  { return info >> 8 }
func RType32(info uint32) uint32 { return info & 0xff }
func RInfo32(sym, typ uint32) uint32 { return sym<<8 | typ&0xff }

// RSym64/RType64 split a 64-bit r_info. On most machines the type is the
// low 32 bits and the symbol index the high 32 bits; EM_MIPS + 64-bit LSB
// is the documented exception: the four-byte type field is byte-reversed
// within r_info on that combination.
func RSym64(info uint64) uint32  { return uint32(info >> 32) }
func RType64(info uint64, machine Machine, order Data) uint32 {
	t := uint32(info)
	if machine == EM_MIPS && order == ELFDATA2LSB {
		t = Swap32(t)
	}
	return t
}
func RInfo64(sym uint32, typ uint32, machine Machine, order Data) uint64 {
	if machine == EM_MIPS && order == ELFDATA2LSB {
		typ = Swap32(typ)
	}
	return uint64(sym)<<32 | uint64(typ)
}

func DecodeRel32(b []byte, order binary.ByteOrder) Rel {
	return Rel{Offset: uint64(order.Uint32(b[0:])), Info: uint64(order.Uint32(b[4:]))}
}
func DecodeRel64(b []byte, order binary.ByteOrder) Rel {
	return Rel{Offset: order.Uint64(b[0:]), Info: order.Uint64(b[8:])}
}
func DecodeRela32(b []byte, order binary.ByteOrder) Rela {
	return Rela{Offset: uint64(order.Uint32(b[0:])), Info: uint64(order.Uint32(b[4:])), Addend: int64(int32(order.Uint32(b[8:])))}
}
func DecodeRela64(b []byte, order binary.ByteOrder) Rela {
	return Rela{Offset: order.Uint64(b[0:]), Info: order.Uint64(b[8:]), Addend: int64(order.Uint64(b[16:]))}
}

func (r *Rel) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(r.Offset))
	order.PutUint32(b[4:], uint32(r.Info))
	return Rel32Size
}
func (r *Rel) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint64(b[0:], r.Offset)
	order.PutUint64(b[8:], r.Info)
	return Rel64Size
}
func (r *Rela) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(r.Offset))
	order.PutUint32(b[4:], uint32(r.Info))
	order.PutUint32(b[8:], uint32(int32(r.Addend)))
	return Rela32Size
}
func (r *Rela) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint64(b[0:], r.Offset)
	order.PutUint64(b[8:], r.Info)
	order.PutUint64(b[16:], uint64(r.Addend))
	return Rela64Size
}
