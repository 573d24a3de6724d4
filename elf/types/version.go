package types

import "encoding/binary"

// Versym is a single entry of .gnu.version: a 16-bit version index, one
// per dynamic symbol.
type Versym uint16

const (
	VER_NDX_LOCAL  Versym = 0
	VER_NDX_GLOBAL Versym = 1
	VERSYM_HIDDEN  Versym = 0x8000
)

func (v Versym) Index() uint16 { return uint16(v) &^ uint16(VERSYM_HIDDEN) }
func (v Versym) Hidden() bool  { return uint16(v)&uint16(VERSYM_HIDDEN) != 0 }

const (
	VerdefSize  = 20
	VerdauxSize = 8
	VerneedSize = 16
	VernauxSize = 16
)

// Verdef is the fixed header of one .gnu.version_d record.
type Verdef struct {
	Version uint16
	Flags   uint16
	Ndx     uint16
	Cnt     uint16
	Hash    uint32
	Aux     uint32 // offset, from this record, to the first Verdaux
	Next    uint32 // offset, from this record, to the next Verdef
}

// Verdaux is one auxiliary (name) entry of a Verdef.
type Verdaux struct {
	Name uint32 // offset into .dynstr
	Next uint32 // offset, from this record, to the next Verdaux
}

// Verneed is the fixed header of one .gnu.version_r record (a needed file).
type Verneed struct {
	Version uint16
	Cnt     uint16
	File    uint32 // offset into .dynstr naming the needed shared object
	Aux     uint32 // offset, from this record, to the first Vernaux
	Next    uint32 // offset, from this record, to the next Verneed
}

// Vernaux is one auxiliary (version name) entry of a Verneed.
type Vernaux struct {
	Hash  uint32
	Flags uint16
	Other uint16 // version index stored into versym for matching symbols
	Name  uint32 // offset into .dynstr
	Next  uint32
}

func DecodeVerdef(b []byte, order binary.ByteOrder) Verdef {
	return Verdef{
		Version: order.Uint16(b[0:]), Flags: order.Uint16(b[2:]),
		Ndx: order.Uint16(b[4:]), Cnt: order.Uint16(b[6:]),
		Hash: order.Uint32(b[8:]), Aux: order.Uint32(b[12:]), Next: order.Uint32(b[16:]),
	}
}
func (v *Verdef) Put(b []byte, order binary.ByteOrder) int {
	order.PutUint16(b[0:], v.Version)
	order.PutUint16(b[2:], v.Flags)
	order.PutUint16(b[4:], v.Ndx)
	order.PutUint16(b[6:], v.Cnt)
	order.PutUint32(b[8:], v.Hash)
	order.PutUint32(b[12:], v.Aux)
	order.PutUint32(b[16:], v.Next)
	return VerdefSize
}

func DecodeVerdaux(b []byte, order binary.ByteOrder) Verdaux {
	return Verdaux{Name: order.Uint32(b[0:]), Next: order.Uint32(b[4:])}
}
func (v *Verdaux) Put(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], v.Name)
	order.PutUint32(b[4:], v.Next)
	return VerdauxSize
}

func DecodeVerneed(b []byte, order binary.ByteOrder) Verneed {
	return Verneed{
		Version: order.Uint16(b[0:]), Cnt: order.Uint16(b[2:]),
		File: order.Uint32(b[4:]), Aux: order.Uint32(b[8:]), Next: order.Uint32(b[12:]),
	}
}
func (v *Verneed) Put(b []byte, order binary.ByteOrder) int {
	order.PutUint16(b[0:], v.Version)
	order.PutUint16(b[2:], v.Cnt)
	order.PutUint32(b[4:], v.File)
	order.PutUint32(b[8:], v.Aux)
	order.PutUint32(b[12:], v.Next)
	return VerneedSize
}

func DecodeVernaux(b []byte, order binary.ByteOrder) Vernaux {
	return Vernaux{
		Hash: order.Uint32(b[0:]), Flags: order.Uint16(b[4:]), Other: order.Uint16(b[6:]),
		Name: order.Uint32(b[8:]), Next: order.Uint32(b[12:]),
	}
}
func (v *Vernaux) Put(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], v.Hash)
	order.PutUint16(b[4:], v.Flags)
	order.PutUint16(b[6:], v.Other)
	order.PutUint32(b[8:], v.Name)
	order.PutUint32(b[12:], v.Next)
	return VernauxSize
}
