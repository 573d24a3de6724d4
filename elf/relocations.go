package elf

import "github.com/blacktop/go-elf/elf/types"

// Relocation is a fully decoded relocation entry: Sym is the raw r_sym
// index into the symbol table named by the relocation section's
// sh_link, and the MIPS64-LE r_info byte-swap quirk has already been
// undone.
type Relocation struct {
	Offset uint64
	Sym    int
	Type   uint32
	Addend int64 // zero for REL entries
	HasAddend bool
}

// relocationChains pre-builds, per target section index, the list of
// relocation sections whose sh_info points at it. Since ELF allows at
// most one relocation section per target in practice but
// the format does not forbid more, this keeps the full list rather than
// assuming a singleton.
func (f *File) relocationChains() map[int][]*Section {
	chains := make(map[int][]*Section)
	for _, s := range f.Sections {
		if s.Type != types.SHT_REL && s.Type != types.SHT_RELA {
			continue
		}
		chains[int(s.Info)] = append(chains[int(s.Info)], s)
	}
	return chains
}

// RelocationsFor returns every relocation targeting the given section,
// walking the precomputed chain of REL/RELA sections whose sh_info
// names it.
func (f *File) RelocationsFor(target *Section) ([]Relocation, error) {
	chains := f.relocationChains()
	secs := chains[target.Index]
	var out []Relocation
	bo := f.ByteOrder.ByteOrder()
	for _, s := range secs {
		if int(s.Link) >= len(f.Sections) {
			return nil, newErr(InvalidLink, "relocation section sh_link does not name a symbol table")
		}
		raw, err := s.Data()
		if err != nil {
			return nil, err
		}
		isRela := s.Type == types.SHT_RELA
		entsize := types.Rel32Size
		if isRela {
			entsize = types.Rela32Size
		}
		if f.Ident.Class.Is64() {
			entsize = types.Rel64Size
			if isRela {
				entsize = types.Rela64Size
			}
		}
		if entsize == 0 || len(raw)%entsize != 0 {
			return nil, newErr(InvalidSize, "relocation section size is not a multiple of entry size")
		}
		n := len(raw) / entsize
		for i := 0; i < n; i++ {
			b := raw[i*entsize : (i+1)*entsize]
			var off, info uint64
			var addend int64
			if isRela {
				var r types.Rela
				if f.Ident.Class.Is64() {
					r = types.DecodeRela64(b, bo)
				} else {
					r = types.DecodeRela32(b, bo)
				}
				off, info, addend = r.Offset, r.Info, r.Addend
			} else {
				var r types.Rel
				if f.Ident.Class.Is64() {
					r = types.DecodeRel64(b, bo)
				} else {
					r = types.DecodeRel32(b, bo)
				}
				off, info = r.Offset, r.Info
			}
			var sym int
			var typ uint32
			if f.Ident.Class.Is64() {
				sym = int(types.RSym64(info))
				typ = types.RType64(info, f.FileHeader.Machine, f.Ident.Data)
			} else {
				sym = int(types.RSym32(uint32(info)))
				typ = types.RType32(uint32(info))
			}
			out = append(out, Relocation{Offset: off, Sym: sym, Type: typ, Addend: addend, HasAddend: isRela})
		}
	}
	return out, nil
}
