package types

import "encoding/binary"

// CompressionType is ch_type.
type CompressionType uint32

const (
	ELFCOMPRESS_ZLIB CompressionType = 1
	ELFCOMPRESS_ZSTD CompressionType = 2
)

func (t CompressionType) String() string {
	switch t {
	case ELFCOMPRESS_ZLIB:
		return "ELFCOMPRESS_ZLIB"
	case ELFCOMPRESS_ZSTD:
		return "ELFCOMPRESS_ZSTD"
	default:
		return "unknown"
	}
}

const (
	Chdr32Size = 12
	Chdr64Size = 24
)

// Chdr is the class-normalized compression header, Elf32/64_Chdr.
type Chdr struct {
	Type      CompressionType
	Size      uint64 // uncompressed size
	Addralign uint64
}

func DecodeChdr32(b []byte, order binary.ByteOrder) Chdr {
	return Chdr{
		Type:      CompressionType(order.Uint32(b[0:])),
		Size:      uint64(order.Uint32(b[4:])),
		Addralign: uint64(order.Uint32(b[8:])),
	}
}

func DecodeChdr64(b []byte, order binary.ByteOrder) Chdr {
	return Chdr{
		Type:      CompressionType(order.Uint32(b[0:])),
		Size:      order.Uint64(b[8:]),
		Addralign: order.Uint64(b[16:]),
	}
}

func (c *Chdr) Put64(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(c.Type))
	order.PutUint32(b[4:], 0) // reserved
	order.PutUint64(b[8:], c.Size)
	order.PutUint64(b[16:], c.Addralign)
	return Chdr64Size
}

func (c *Chdr) Put32(b []byte, order binary.ByteOrder) int {
	order.PutUint32(b[0:], uint32(c.Type))
	order.PutUint32(b[4:], uint32(c.Size))
	order.PutUint32(b[8:], uint32(c.Addralign))
	return Chdr32Size
}

// ZdebugMagic is the legacy GNU compressed-debug-section magic, used by
// the ".zdebug_*" naming convention in place of the standard SHF_COMPRESSED
// mechanism: 4 bytes "ZLIB" followed by an 8-byte big-endian uncompressed size.
var ZdebugMagic = [4]byte{'Z', 'L', 'I', 'B'}

const ZdebugHeaderSize = 12
