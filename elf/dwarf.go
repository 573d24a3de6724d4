package elf

import (
	"fmt"
	"strings"

	"github.com/blacktop/go-dwarf"
)

// DWARF returns the DWARF debug information for the file, built from
// whichever of .debug_info/.debug_abbrev/.debug_line/.debug_ranges/
// .debug_str/.debug_types sections are present (transparently
// decompressing SHF_COMPRESSED / .zdebug_* ones first). Parsing is
// done against github.com/blacktop/go-dwarf rather than the standard
// library's debug/dwarf, giving callers the extra API surface (e.g.
// FuncType.FileIndex) that fork provides.
func (f *File) DWARF() (*dwarf.Data, error) {
	suffix := func(name string) string {
		switch {
		case strings.HasPrefix(name, ".debug_"):
			return name[len(".debug_"):]
		case strings.HasPrefix(name, ".zdebug_"):
			return name[len(".zdebug_"):]
		default:
			return ""
		}
	}

	dat := map[string][]byte{"abbrev": nil, "info": nil, "str": nil, "line": nil, "ranges": nil}
	for _, s := range f.Sections {
		suf := suffix(s.Name)
		if _, ok := dat[suf]; !ok {
			continue
		}
		b, err := f.UncompressedData(s, nil)
		if err != nil {
			return nil, err
		}
		dat[suf] = b
	}

	d, err := dwarf.New(dat["abbrev"], nil, nil, dat["info"], dat["line"], nil, dat["ranges"], dat["str"])
	if err != nil {
		return nil, wrapErr(InvalidCompressed, "failed to parse DWARF data", err)
	}

	for i, s := range f.Sections {
		if suffix(s.Name) != "types" {
			continue
		}
		b, err := f.UncompressedData(s, nil)
		if err != nil {
			return nil, err
		}
		if err := d.AddTypes(fmt.Sprintf("types-%d", i), b); err != nil {
			return nil, wrapErr(InvalidCompressed, "failed to parse .debug_types", err)
		}
	}
	return d, nil
}
