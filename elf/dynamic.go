package elf

import "github.com/blacktop/go-elf/elf/types"

// DynEntry is a decoded dynamic-table entry, with string-valued tags
// already resolved against .dynstr.
type DynEntry struct {
	Tag   types.DynTag
	Val   uint64
	Str   string // valid when Tag.IsString()
}

// dynamicSection returns the SHT_DYNAMIC section, if any.
func (f *File) dynamicSection() *Section {
	for _, s := range f.Sections {
		if s.Type == types.SHT_DYNAMIC {
			return s
		}
	}
	return nil
}

// DynamicTable decodes the dynamic section (if present), resolving
// string-valued tags (DT_NEEDED, DT_SONAME, DT_RPATH, DT_RUNPATH)
// against the dynamic string table named by .dynsym's sh_link (or a
// section named ".dynstr"); DT_STRTAB is not consulted.
func (f *File) DynamicTable() ([]DynEntry, error) {
	dynSec := f.dynamicSection()
	if dynSec == nil {
		return nil, nil
	}
	raw, err := dynSec.Data()
	if err != nil {
		return nil, err
	}
	strSec := f.dynstrSection()

	bo := f.ByteOrder.ByteOrder()
	size := types.Dyn32Size
	if f.Ident.Class.Is64() {
		size = types.Dyn64Size
	}
	if len(raw)%size != 0 {
		return nil, newErr(InvalidSize, "dynamic section size is not a multiple of entry size")
	}
	var strData []byte
	if strSec != nil {
		strData, _ = strSec.Data()
	}

	var out []DynEntry
	for off := 0; off+size <= len(raw); off += size {
		b := raw[off : off+size]
		var d types.Dyn
		if f.Ident.Class.Is64() {
			d = types.DecodeDyn64(b, bo)
		} else {
			d = types.DecodeDyn32(b, bo)
		}
		if d.Tag == types.DT_NULL {
			out = append(out, DynEntry{Tag: d.Tag, Val: d.Val})
			break
		}
		e := DynEntry{Tag: d.Tag, Val: d.Val}
		if d.Tag.IsString() && strData != nil {
			e.Str, _ = cstr(strData, d.Val)
		}
		out = append(out, e)
	}
	return out, nil
}

// dynstrSection locates .dynstr via .dynsym's sh_link, falling back to a
// section named ".dynstr" if no dynamic symbol table is present.
func (f *File) dynstrSection() *Section {
	if f.dynsymSec != nil && int(f.dynsymSec.Link) < len(f.Sections) {
		return f.Sections[f.dynsymSec.Link]
	}
	return f.SectionByName(".dynstr")
}

// NeededLibraries returns the DT_NEEDED string values, in table order.
func (f *File) NeededLibraries() ([]string, error) {
	entries, err := f.DynamicTable()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Tag == types.DT_NEEDED {
			out = append(out, e.Str)
		}
	}
	return out, nil
}

// SOName returns the DT_SONAME value, if present.
func (f *File) SOName() (string, bool, error) {
	entries, err := f.DynamicTable()
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Tag == types.DT_SONAME {
			return e.Str, true, nil
		}
	}
	return "", false, nil
}

// RunPath returns the DT_RUNPATH or DT_RPATH value (RUNPATH preferred),
// if present.
func (f *File) RunPath() (string, bool, error) {
	entries, err := f.DynamicTable()
	if err != nil {
		return "", false, err
	}
	var rpath string
	var found bool
	for _, e := range entries {
		if e.Tag == types.DT_RUNPATH {
			return e.Str, true, nil
		}
		if e.Tag == types.DT_RPATH {
			rpath, found = e.Str, true
		}
	}
	return rpath, found, nil
}
