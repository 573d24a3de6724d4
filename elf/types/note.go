package types

import "encoding/binary"

// Nhdr is the class-independent note header, Elf32/64_Nhdr (they share
// the same 12-byte shape; only the payload alignment differs by class).
type Nhdr struct {
	Namesz uint32
	Descsz uint32
	Type   uint32
}

const NhdrSize = 12

const (
	NT_GNU_ABI_TAG     = 1
	NT_GNU_HWCAP       = 2
	NT_GNU_BUILD_ID    = 3
	NT_GNU_GOLD_VERSION = 4
	NT_GNU_PROPERTY_TYPE_0 = 5
)

func DecodeNhdr(b []byte, order binary.ByteOrder) Nhdr {
	return Nhdr{
		Namesz: order.Uint32(b[0:]),
		Descsz: order.Uint32(b[4:]),
		Type:   order.Uint32(b[8:]),
	}
}

func (n *Nhdr) Put(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], n.Namesz)
	order.PutUint32(b[4:], n.Descsz)
	order.PutUint32(b[8:], n.Type)
	return NhdrSize
}

// Align4 rounds n up to the next multiple of 4, the note-field alignment.
func Align4(n uint32) uint32 { return (n + 3) &^ 3 }
