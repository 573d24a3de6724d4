// Package types holds bit-exact mirrors of the on-disk ELF32/ELF64
// structures together with the byte-order-aware primitives used to
// read and write them.
package types

import (
	"encoding/binary"
	"fmt"
)

// Error is a recoverable parse error carrying a short static description
// and the byte offset at which it occurred.
type Error struct {
	Off int64
	Msg string
	Val interface{}
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Val != nil {
		msg += fmt.Sprintf(" %v", e.Val)
	}
	return fmt.Sprintf("%s (at offset %#x)", msg, e.Off)
}

func errAt(off int64, msg string, val interface{}) error {
	return &Error{Off: off, Msg: msg, Val: val}
}

// Reader is a validating cursor over a byte slice. It never panics on
// out-of-range access; every read returns a typed error instead.
type Reader struct {
	Data  []byte
	Order binary.ByteOrder
}

func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{Data: data, Order: order}
}

// U8 reads a single byte at off.
func (r *Reader) U8(off int64) (uint8, error) {
	if off < 0 || off+1 > int64(len(r.Data)) {
		return 0, errAt(off, "read past end of buffer", nil)
	}
	return r.Data[off], nil
}

// U16 reads a uint16 at off in the reader's byte order.
func (r *Reader) U16(off int64) (uint16, error) {
	if off < 0 || off+2 > int64(len(r.Data)) {
		return 0, errAt(off, "read past end of buffer", nil)
	}
	return r.Order.Uint16(r.Data[off:]), nil
}

// U32 reads a uint32 at off in the reader's byte order.
func (r *Reader) U32(off int64) (uint32, error) {
	if off < 0 || off+4 > int64(len(r.Data)) {
		return 0, errAt(off, "read past end of buffer", nil)
	}
	return r.Order.Uint32(r.Data[off:]), nil
}

// U64 reads a uint64 at off in the reader's byte order.
func (r *Reader) U64(off int64) (uint64, error) {
	if off < 0 || off+8 > int64(len(r.Data)) {
		return 0, errAt(off, "read past end of buffer", nil)
	}
	return r.Order.Uint64(r.Data[off:]), nil
}

// Bytes returns the n bytes at off without copying.
func (r *Reader) Bytes(off int64, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > int64(len(r.Data)) {
		return nil, errAt(off, "slice past end of buffer", n)
	}
	return r.Data[off : off+n], nil
}

// CString reads the NUL-terminated string starting at off.
func (r *Reader) CString(off int64) (string, error) {
	if off < 0 || off >= int64(len(r.Data)) {
		return "", errAt(off, "string offset out of range", nil)
	}
	end := off
	for end < int64(len(r.Data)) && r.Data[end] != 0 {
		end++
	}
	if end >= int64(len(r.Data)) {
		return "", errAt(off, "unterminated string", nil)
	}
	return string(r.Data[off:end]), nil
}

// Uleb128 reads an unsigned LEB128 value starting at off, returning the
// decoded value and the offset immediately following it.
func (r *Reader) Uleb128(off int64) (uint64, int64, error) {
	var result uint64
	var shift uint
	cur := off
	for {
		b, err := r.U8(cur)
		if err != nil {
			return 0, 0, err
		}
		cur++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, errAt(off, "uleb128 overflow", nil)
		}
	}
	return result, cur, nil
}

// Swap16 byte-swaps a uint16.
func Swap16(v uint16) uint16 { return v<<8 | v>>8 }

// Swap32 byte-swaps a uint32.
func Swap32(v uint32) uint32 {
	return v<<24 | (v&0xff00)<<8 | (v&0xff0000)>>8 | v>>24
}

// Swap64 byte-swaps a uint64.
func Swap64(v uint64) uint64 {
	return uint64(Swap32(uint32(v)))<<32 | uint64(Swap32(uint32(v>>32)))
}
