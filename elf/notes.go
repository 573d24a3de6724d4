package elf

import "github.com/blacktop/go-elf/elf/types"

// Note is a single decoded ELF note: name, type, and raw descriptor bytes.
type Note struct {
	Name string
	Type uint32
	Desc []byte
}

// notesFromBytes walks a NOTE section/segment payload with a
// cursor-holding iterator: it advances one record at a time and
// surfaces a parse error at the first malformed record rather than
// validating the whole blob up front.
func notesFromBytes(b []byte, bo func([]byte) types.Nhdr) ([]Note, error) {
	var out []Note
	off := 0
	for off < len(b) {
		if off+types.NhdrSize > len(b) {
			return out, newErr(InvalidSize, "truncated note header")
		}
		nh := bo(b[off:])
		off += types.NhdrSize
		nameEnd := off + int(nh.Namesz)
		if nameEnd > len(b) {
			return out, newErr(InvalidSize, "truncated note name")
		}
		name := ""
		if nh.Namesz > 0 {
			name = string(b[off : off+int(nh.Namesz)-1]) // drop NUL terminator
		}
		off = int(types.Align4(uint32(nameEnd)))
		descEnd := off + int(nh.Descsz)
		if descEnd > len(b) {
			return out, newErr(InvalidSize, "truncated note descriptor")
		}
		desc := b[off:descEnd]
		off = int(types.Align4(uint32(descEnd)))
		out = append(out, Note{Name: name, Type: nh.Type, Desc: desc})
	}
	return out, nil
}

// Notes decodes every SHT_NOTE section's payload.
func (f *File) Notes() ([]Note, error) {
	bo := f.ByteOrder.ByteOrder()
	decode := func(b []byte) types.Nhdr { return types.DecodeNhdr(b, bo) }
	var all []Note
	for _, s := range f.Sections {
		if s.Type != types.SHT_NOTE {
			continue
		}
		raw, err := s.Data()
		if err != nil {
			return nil, err
		}
		notes, err := notesFromBytes(raw, decode)
		if err != nil {
			return nil, err
		}
		all = append(all, notes...)
	}
	return all, nil
}

// BuildID returns the NT_GNU_BUILD_ID descriptor bytes, if present.
func (f *File) BuildID() ([]byte, error) {
	notes, err := f.Notes()
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.Name == "GNU" && n.Type == types.NT_GNU_BUILD_ID {
			return n.Desc, nil
		}
	}
	return nil, nil
}

// GNUDebugLink returns the .gnu_debuglink section's referenced filename
// and CRC32, if present.
func (f *File) GNUDebugLink() (string, uint32, error) {
	s := f.SectionByName(".gnu_debuglink")
	if s == nil {
		return "", 0, nil
	}
	raw, err := s.Data()
	if err != nil {
		return "", 0, err
	}
	name, err := cstr(raw, 0)
	if err != nil {
		return "", 0, err
	}
	aligned := int(types.Align4(uint32(len(name) + 1)))
	if aligned+4 > len(raw) {
		return name, 0, newErr(InvalidSize, "truncated gnu_debuglink crc")
	}
	crc := f.ByteOrder.ByteOrder().Uint32(raw[aligned:])
	return name, crc, nil
}
