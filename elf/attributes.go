package elf

import "github.com/blacktop/go-elf/elf/types"

// Attribute is one decoded tag/value pair from a GNU attributes
// vendor subsection. Value is set for integer tags (odd tag number, by
// convention) and Str for string tags (even tag number); both may be
// empty depending on the tag.
type Attribute struct {
	Tag   uint64
	Value uint64
	Str   string
}

// VendorAttributes is one "gnu"/vendor-named subsection of SHT_GNU_ATTRIBUTES.
type VendorAttributes struct {
	Vendor     string
	Attributes []Attribute
}

// GNUAttributes parses the SHT_GNU_ATTRIBUTES section, if present: a
// version byte followed by a sequence of vendor subsections, each a
// 4-byte size in the file's byte order, a NUL-terminated vendor name, then one or
// more tagged sub-subsections.
func (f *File) GNUAttributes() ([]VendorAttributes, error) {
	sec := f.sectionByType(types.SHT_GNU_ATTRIBUTES)
	if sec == nil {
		return nil, nil
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] != 'A' {
		return nil, newErr(UnsupportedFeature, "unrecognized GNU attributes format version")
	}
	r := types.NewReader(raw, f.ByteOrder.ByteOrder())
	off := int64(1)
	var out []VendorAttributes

	for off < int64(len(raw)) {
		subsecSize, err := r.U32(off)
		if err != nil {
			return nil, err
		}
		if subsecSize < 4 {
			return nil, newErr(InvalidSize, "zero-length GNU attribute subsection")
		}
		end := off + int64(subsecSize)
		if end > int64(len(raw)) {
			return nil, newErr(InvalidSize, "GNU attribute subsection out of range")
		}
		name, err := r.CString(off + 4)
		if err != nil {
			return nil, err
		}
		va := VendorAttributes{Vendor: name}
		cur := off + 4 + int64(len(name)) + 1
		for cur < end {
			tag, next, err := r.Uleb128(cur)
			if err != nil {
				return nil, err
			}
			cur = next
			if tag%2 == 1 {
				val, next, err := r.Uleb128(cur)
				if err != nil {
					return nil, err
				}
				cur = next
				va.Attributes = append(va.Attributes, Attribute{Tag: tag, Value: val})
			} else {
				s, err := r.CString(cur)
				if err != nil {
					return nil, err
				}
				cur += int64(len(s)) + 1
				va.Attributes = append(va.Attributes, Attribute{Tag: tag, Str: s})
			}
		}
		out = append(out, va)
		off = end
	}
	return out, nil
}
