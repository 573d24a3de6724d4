// Package elf implements the read view over an ELF32/ELF64, little- or
// big-endian object file: zero-copy, validating accessors over the
// file header, section table, program header table, symbol tables,
// dynamic table, version records, notes and compressed sections.
//
// High level access to low level data structures: FileHeader carries
// the decoded, class-normalized header; Sections and Progs carry the
// decoded tables; nothing beyond that is parsed until the caller asks
// for it.
package elf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blacktop/go-elf/elf/types"
)

// Section is one entry of the section header table plus its resolved
// name and a back-reference to the owning file for lazy data access.
type Section struct {
	types.SectionHeader
	Name  string
	Index int

	f *File
}

// Data returns the section's raw on-disk bytes. NOBITS sections have no
// file range and return an empty slice.
func (s *Section) Data() ([]byte, error) {
	if s.Type == types.SHT_NOBITS {
		return nil, nil
	}
	end := s.Off + s.Size
	if s.Size == 0 {
		return nil, nil
	}
	if end < s.Off || end > uint64(len(s.f.data)) {
		return nil, wrapErr(InvalidSize, fmt.Sprintf("section %q size out of range", s.Name), nil)
	}
	return s.f.data[s.Off:end], nil
}

// Prog is one entry of the program header table.
type Prog struct {
	types.ProgHeader
	Index int
}

// Data returns the segment's raw on-disk bytes (p_filesz, starting at
// p_offset); memsz beyond filesz is implicitly zero at load time and is
// not represented here.
func (p *Prog) Data(f *File) ([]byte, error) {
	end := p.Off + p.Filesz
	if end < p.Off || end > uint64(len(f.data)) {
		return nil, wrapErr(InvalidSize, "segment file range out of range", nil)
	}
	return f.data[p.Off:end], nil
}

// File is a parsed, read-only view over an ELF object file. It borrows
// its backing bytes: the caller's slice must outlive the File.
type File struct {
	Ident      types.Ident
	FileHeader types.FileHeader
	ByteOrder  types.Data

	Sections []*Section
	Progs    []*Prog

	data []byte

	symtabSec    *Section
	dynsymSec    *Section
	shndxSec     *Section // SYMTAB_SHNDX companion of symtabSec, if any
	dynShndxSec  *Section

	closer interface{ Close() error }
}

// Open parses the bytes in data as an ELF file. The returned File
// borrows data; the caller must keep it alive for the File's lifetime.
func Open(data []byte) (*File, error) {
	ident, err := types.ParseIdent(data)
	if err != nil {
		return nil, wrapErr(MalformedHeader, "bad e_ident", err)
	}
	order := ident.Data.ByteOrder()

	f := &File{Ident: ident, ByteOrder: ident.Data, data: data}

	switch ident.Class {
	case types.ELFCLASS32:
		h, err := types.DecodeHeader32(data, order)
		if err != nil {
			return nil, wrapErr(MalformedHeader, "bad ELF32 header", err)
		}
		f.FileHeader = widenHeader32(h, ident)
	case types.ELFCLASS64:
		h, err := types.DecodeHeader64(data, order)
		if err != nil {
			return nil, wrapErr(MalformedHeader, "bad ELF64 header", err)
		}
		f.FileHeader = widenHeader64(h, ident)
	default:
		return nil, newErr(MalformedHeader, "unknown ELF class")
	}

	if err := f.parseSections(order); err != nil {
		return nil, err
	}
	if err := f.parseProgs(order); err != nil {
		return nil, err
	}
	f.resolveSectionNames()
	f.locateSymbolTables()
	return f, nil
}

func widenHeader32(h *types.Header32, ident types.Ident) types.FileHeader {
	return types.FileHeader{
		Ident: ident, Type: types.Type(h.Type), Machine: types.Machine(h.Machine),
		Version: h.Version, Entry: uint64(h.Entry), Phoff: uint64(h.Phoff), Shoff: uint64(h.Shoff),
		Flags: h.Flags, Ehsize: h.Ehsize, Phentsize: h.Phentsize, Phnum: h.Phnum,
		Shentsize: h.Shentsize, Shnum: h.Shnum, Shstrndx: h.Shstrndx,
	}
}

func widenHeader64(h *types.Header64, ident types.Ident) types.FileHeader {
	return types.FileHeader{
		Ident: ident, Type: types.Type(h.Type), Machine: types.Machine(h.Machine),
		Version: h.Version, Entry: h.Entry, Phoff: h.Phoff, Shoff: h.Shoff,
		Flags: h.Flags, Ehsize: h.Ehsize, Phentsize: h.Phentsize, Phnum: h.Phnum,
		Shentsize: h.Shentsize, Shnum: h.Shnum, Shstrndx: h.Shstrndx,
	}
}

// parseSections decodes the section header table, resolving the
// overflow conventions: e_shnum==0 (real count in section 0's
// sh_size), e_shstrndx==SHN_XINDEX (real index in section 0's sh_link).
func (f *File) parseSections(order types.Data) error {
	if f.FileHeader.Shoff == 0 {
		return nil
	}
	bo := order.ByteOrder()
	entsize := uint64(f.FileHeader.Shentsize)
	if f.Ident.Class.Is64() {
		if entsize != types.Section64Size {
			return newErr(MalformedHeader, "e_shentsize does not match ELF64 section header size")
		}
	} else if entsize != types.Section32Size {
		return newErr(MalformedHeader, "e_shentsize does not match ELF32 section header size")
	}

	readOne := func(i uint64) (types.SectionHeader, error) {
		off := f.FileHeader.Shoff + i*entsize
		if off+entsize > uint64(len(f.data)) {
			return types.SectionHeader{}, wrapErr(InvalidOffset, "section header out of range", nil)
		}
		b := f.data[off : off+entsize]
		if f.Ident.Class.Is64() {
			return types.DecodeSection64(b, bo), nil
		}
		return types.DecodeSection32(b, bo), nil
	}

	shnum := uint64(f.FileHeader.Shnum)
	var sh0 types.SectionHeader
	if shnum > 0 {
		var err error
		sh0, err = readOne(0)
		if err != nil {
			return err
		}
	}
	if shnum == 0 && f.FileHeader.Shoff != 0 {
		shnum = sh0.Size
	}
	if f.FileHeader.Shstrndx == types.SHN_XINDEX {
		f.FileHeader.Shstrndx = uint16(sh0.Link)
	}
	if f.FileHeader.Phnum == types.PN_XNUM {
		f.FileHeader.Phnum = uint16(sh0.Info)
	}

	f.Sections = make([]*Section, 0, shnum)
	for i := uint64(0); i < shnum; i++ {
		var sh types.SectionHeader
		var err error
		if i == 0 {
			sh = sh0
		} else {
			sh, err = readOne(i)
			if err != nil {
				return err
			}
		}
		f.Sections = append(f.Sections, &Section{SectionHeader: sh, Index: int(i), f: f})
	}
	return nil
}

func (f *File) parseProgs(order types.Data) error {
	if f.FileHeader.Phoff == 0 || f.FileHeader.Phnum == 0 {
		return nil
	}
	bo := order.ByteOrder()
	entsize := uint64(f.FileHeader.Phentsize)
	if f.Ident.Class.Is64() {
		if entsize != types.Prog64Size {
			return newErr(MalformedHeader, "e_phentsize does not match ELF64 program header size")
		}
	} else if entsize != types.Prog32Size {
		return newErr(MalformedHeader, "e_phentsize does not match ELF32 program header size")
	}
	f.Progs = make([]*Prog, 0, f.FileHeader.Phnum)
	for i := uint16(0); i < f.FileHeader.Phnum; i++ {
		off := f.FileHeader.Phoff + uint64(i)*entsize
		if off+entsize > uint64(len(f.data)) {
			return wrapErr(InvalidOffset, "program header out of range", nil)
		}
		b := f.data[off : off+entsize]
		var ph types.ProgHeader
		if f.Ident.Class.Is64() {
			ph = types.DecodeProg64(b, bo)
		} else {
			ph = types.DecodeProg32(b, bo)
		}
		f.Progs = append(f.Progs, &Prog{ProgHeader: ph, Index: int(i)})
	}
	return nil
}

func (f *File) resolveSectionNames() {
	if int(f.FileHeader.Shstrndx) >= len(f.Sections) {
		return
	}
	strSec := f.Sections[f.FileHeader.Shstrndx]
	raw, err := strSec.Data()
	if err != nil {
		return
	}
	for _, s := range f.Sections {
		if name, err := cstr(raw, uint64(s.Name)); err == nil {
			s.Name = name
		}
	}
}

func cstr(b []byte, off uint64) (string, error) {
	if off >= uint64(len(b)) {
		return "", newErr(InvalidOffset, "string offset out of range")
	}
	end := off
	for end < uint64(len(b)) && b[end] != 0 {
		end++
	}
	return string(b[off:end]), nil
}

func (f *File) locateSymbolTables() {
	for _, s := range f.Sections {
		switch s.Type {
		case types.SHT_SYMTAB:
			f.symtabSec = s
		case types.SHT_DYNSYM:
			f.dynsymSec = s
		case types.SHT_SYMTAB_SHNDX:
			// linked via sh_link to the symtab it extends
			if int(s.Link) < len(f.Sections) {
				switch f.Sections[s.Link].Type {
				case types.SHT_SYMTAB:
					f.shndxSec = s
				case types.SHT_DYNSYM:
					f.dynShndxSec = s
				}
			}
		}
	}
}

// SectionByIndex returns the section at the given on-disk index, or nil.
func (f *File) SectionByIndex(i int) *Section {
	if i < 0 || i >= len(f.Sections) {
		return nil
	}
	return f.Sections[i]
}

// SectionByName does a linear scan for an exact name match; if none is
// found and name has the form ".debug_X", it falls back to the legacy
// GNU compressed alias ".zdebug_X".
func (f *File) SectionByName(name string) *Section {
	for _, s := range f.Sections {
		if s.Name == name {
			return s
		}
	}
	if strings.HasPrefix(name, ".debug_") {
		alt := ".zdebug_" + strings.TrimPrefix(name, ".debug_")
		for _, s := range f.Sections {
			if s.Name == alt {
				return s
			}
		}
	}
	return nil
}

// Segments returns every program header, of any p_type, in file order.
func (f *File) Segments() []*Prog {
	return f.Progs
}

// SegmentsByType filters Progs by p_type.
func (f *File) SegmentsByType(t types.ProgType) []*Prog {
	var out []*Prog
	for _, p := range f.Progs {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// Interpreter returns the contents of the first PT_INTERP segment's
// file range, minus any trailing NUL.
func (f *File) Interpreter() (string, error) {
	for _, p := range f.Progs {
		if p.Type != types.PT_INTERP {
			continue
		}
		b, err := p.Data(f)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\x00"), nil
	}
	return "", newErr(ModifyFailed, "no PT_INTERP segment")
}

// sortedAllocSections returns alloc sections ordered by (addr, size).
// It has no callers in this repository.
func (f *File) sortedAllocSections() []*Section {
	var out []*Section
	for _, s := range f.Sections {
		if s.Flags.Alloc() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Addr != out[j].Addr {
			return out[i].Addr < out[j].Addr
		}
		return out[i].Size < out[j].Size
	})
	return out
}
