package elf

import (
	"bytes"
	"compress/zlib"
	"io"
	"strings"

	"github.com/blacktop/go-elf/elf/types"
)

// Decompressor is a pure function from compressed bytes + expected
// uncompressed size to the decompressed bytes. The default
// implementation wraps compress/zlib.
type Decompressor func(compressed []byte, expectedSize uint64) ([]byte, error)

// ZlibDecompress is the default Decompressor.
func ZlibDecompress(compressed []byte, expectedSize uint64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, wrapErr(InvalidCompressed, "zlib stream is corrupt", err)
	}
	defer zr.Close()
	out := make([]byte, 0, expectedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, wrapErr(InvalidCompressed, "zlib decompression failed", err)
	}
	return buf.Bytes(), nil
}

// UncompressedData returns the section's payload, transparently
// decompressing it if the section carries SHF_COMPRESSED (standard
// Elf32/64_Chdr + ELFCOMPRESS_ZLIB) or uses the legacy GNU convention of
// naming it ".zdebug_*" with a "ZLIB\0\0\0\0" + big-endian size header.
func (f *File) UncompressedData(s *Section, decomp Decompressor) ([]byte, error) {
	if decomp == nil {
		decomp = ZlibDecompress
	}
	raw, err := s.Data()
	if err != nil {
		return nil, err
	}
	if s.Flags.Compressed() {
		bo := f.ByteOrder.ByteOrder()
		var hdr types.Chdr
		var hdrSize int
		if f.Ident.Class.Is64() {
			if len(raw) < types.Chdr64Size {
				return nil, newErr(InvalidCompressed, "truncated compression header")
			}
			hdr = types.DecodeChdr64(raw, bo)
			hdrSize = types.Chdr64Size
		} else {
			if len(raw) < types.Chdr32Size {
				return nil, newErr(InvalidCompressed, "truncated compression header")
			}
			hdr = types.DecodeChdr32(raw, bo)
			hdrSize = types.Chdr32Size
		}
		if hdr.Type != types.ELFCOMPRESS_ZLIB {
			return nil, newErr(UnsupportedFeature, "only ELFCOMPRESS_ZLIB is supported")
		}
		return decomp(raw[hdrSize:], hdr.Size)
	}
	if strings.HasPrefix(s.Name, ".zdebug_") {
		if len(raw) < types.ZdebugHeaderSize || !bytes.Equal(raw[:4], types.ZdebugMagic[:]) {
			return nil, newErr(InvalidCompressed, "missing ZLIB magic in .zdebug_* section")
		}
		size := uint64(0)
		for _, b := range raw[4:12] {
			size = size<<8 | uint64(b)
		}
		return decomp(raw[types.ZdebugHeaderSize:], size)
	}
	return raw, nil
}
