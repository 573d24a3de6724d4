package build

import (
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

const defaultLoadAlign = 0x1000

// payloadKindFor classifies a read-view section the way the build
// model expects: structural sections get a marker payload backed
// by another arena (symbols, relocations, dynamic entries, ...);
// everything else is opaque raw bytes.
func payloadKindFor(s *elf.Section, shstrndx int) PayloadKind {
	switch s.Type {
	case types.SHT_NOBITS:
		return PayloadUninitialized
	case types.SHT_DYNAMIC:
		return PayloadDynamic
	case types.SHT_SYMTAB:
		return PayloadSymtab
	case types.SHT_DYNSYM:
		return PayloadDynsym
	case types.SHT_REL:
		if s.Info == 0 {
			return PayloadDynamicRel
		}
		return PayloadRel
	case types.SHT_RELA:
		if s.Info == 0 {
			return PayloadDynamicRel
		}
		return PayloadRela
	case types.SHT_NOTE:
		return PayloadNotes
	case types.SHT_GNU_ATTRIBUTES:
		return PayloadAttributes
	case types.SHT_SYMTAB_SHNDX:
		return PayloadSymtabShndx
	case types.SHT_HASH:
		return PayloadHash
	case types.SHT_GNU_HASH:
		return PayloadGNUHash
	case types.SHT_GNU_VERSYM:
		return PayloadGNUVersym
	case types.SHT_GNU_VERDEF:
		return PayloadGNUVerdef
	case types.SHT_GNU_VERNEED:
		return PayloadGNUVerneed
	case types.SHT_STRTAB:
		if s.Index == shstrndx {
			return PayloadShstrtab
		}
		if s.Name == ".dynstr" {
			return PayloadDynstr
		}
		return PayloadStrtab
	default:
		return PayloadRaw
	}
}

// refFor resolves a read-view on-disk section index (possibly a
// SHN_* special value) into a build-model SectionRef, given the
// index -> ID table built while copying sections.
func refFor(shndx int, ids []ID) SectionRef {
	switch {
	case shndx < 0:
		return SectionRef{Special: RefUndef}
	case shndx >= len(ids):
		return SectionRef{Special: RefUndef}
	default:
		return SectionRef{Section: ids[shndx]}
	}
}

// FromView builds a Builder from a parsed read-view file. The
// load either fully succeeds or returns an error; there is no partial
// builder on failure.
func FromView(f *elf.File) (*Builder, error) {
	b := New(f.Ident.Class, f.Ident.Data, defaultLoadAlign)
	b.Ident = f.Ident
	b.Type = f.FileHeader.Type
	b.Machine = f.FileHeader.Machine
	b.Entry = f.FileHeader.Entry
	b.Flags = f.FileHeader.Flags

	secIDs := make([]ID, len(f.Sections))
	for i, s := range f.Sections {
		raw, err := s.Data()
		if err != nil {
			return nil, err
		}
		bs := Section{
			Name: s.Name, Type: s.Type, Flags: s.Flags, Addr: s.Addr,
			Off: s.Off, Size: s.Size, Info: s.Info, Align: s.Addralign,
			Entsize: s.Entsize,
			Payload: payloadKindFor(s, int(f.FileHeader.Shstrndx)),
		}
		if bs.Payload == PayloadRaw || bs.Payload == PayloadStrtab ||
			bs.Payload == PayloadShstrtab || bs.Payload == PayloadDynstr {
			owned := make([]byte, len(raw))
			copy(owned, raw)
			bs.Raw = owned
		}
		secIDs[i] = b.Sections.Add(bs)
	}
	// second pass: resolve sh_link now that every ID is known, and load
	// the structural payloads that reference other sections.
	for i, s := range f.Sections {
		bs := b.Sections.Get(secIDs[i])
		if int(s.Link) < len(secIDs) {
			bs.Link = secIDs[s.Link]
		}
		infoIsSectionIndex := s.Flags.InfoLink() ||
			((bs.Payload == PayloadRel || bs.Payload == PayloadRela) && s.Info != 0)
		if infoIsSectionIndex && int(s.Info) < len(secIDs) {
			bs.Info = uint32(secIDs[s.Info])
		}
		switch bs.Payload {
		case PayloadDynamic:
			if err := loadDynamic(b, f, s, bs); err != nil {
				return nil, err
			}
			b.DynamicSection = secIDs[i]
		case PayloadNotes:
			notes, err := notesFor(f, s)
			if err != nil {
				return nil, err
			}
			bs.Notes = notes
		case PayloadAttributes:
			attrs, err := attrsFor(f, s)
			if err != nil {
				return nil, err
			}
			bs.Attrs = attrs
		}
	}

	symIDs, err := loadSymbols(b, f, &b.Symbols, f.Sections, secIDs, false)
	if err != nil {
		return nil, err
	}
	dynSymIDs, err := loadSymbols(b, f, &b.DynSymbols, f.Sections, secIDs, true)
	if err != nil {
		return nil, err
	}

	for i, s := range f.Sections {
		bs := b.Sections.Get(secIDs[i])
		switch bs.Payload {
		case PayloadRel, PayloadRela, PayloadDynamicRel:
			target := int(s.Info)
			relocs, err := f.RelocationsFor(s)
			if err != nil {
				return nil, err
			}
			symtab := symIDs
			if int(s.Link) < len(f.Sections) && f.Sections[s.Link].Type == types.SHT_DYNSYM {
				symtab = dynSymIDs
			}
			_ = target
			bs.Relocs = make([]Relocation, len(relocs))
			for j, r := range relocs {
				var symID ID
				if r.Sym >= 0 && r.Sym < len(symtab) {
					symID = symtab[r.Sym]
				}
				bs.Relocs[j] = Relocation{Offset: r.Offset, Sym: symID, Type: r.Type, Addend: r.Addend, HasAddend: r.HasAddend}
			}
		}
	}

	if err := loadVersions(b, f); err != nil {
		return nil, err
	}
	if err := loadSegments(b, f, secIDs); err != nil {
		return nil, err
	}
	return b, nil
}

func loadDynamic(b *Builder, f *elf.File, s *elf.Section, bs *Section) error {
	entries, err := f.DynamicTable()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Tag == types.DT_NULL {
			continue
		}
		if e.Tag.IsString() {
			bs.Dynamic = append(bs.Dynamic, DynamicEntry{Tag: e.Tag, Str: e.Str, IsStr: true})
		} else {
			bs.Dynamic = append(bs.Dynamic, DynamicEntry{Tag: e.Tag, Value: e.Val})
		}
	}
	return nil
}

func notesFor(f *elf.File, s *elf.Section) ([]elfNote, error) {
	raw, err := s.Data()
	if err != nil {
		return nil, err
	}
	_ = raw
	all, err := f.Notes()
	if err != nil {
		return nil, err
	}
	out := make([]elfNote, len(all))
	for i, n := range all {
		out[i] = elfNote{Name: n.Name, Type: n.Type, Desc: append([]byte(nil), n.Desc...)}
	}
	return out, nil
}

func attrsFor(f *elf.File, s *elf.Section) ([]vendorAttrs, error) {
	va, err := f.GNUAttributes()
	if err != nil {
		return nil, err
	}
	out := make([]vendorAttrs, len(va))
	for i, v := range va {
		pairs := make([]attrPair, len(v.Attributes))
		for j, a := range v.Attributes {
			pairs[j] = attrPair{Tag: a.Tag, Value: a.Value, Str: a.Str}
		}
		out[i] = vendorAttrs{Vendor: v.Vendor, Attributes: pairs}
	}
	return out, nil
}

// loadSymbols copies either .symtab or .dynsym into the given arena,
// resolving each entry's st_shndx into a SectionRef, and returns a
// table mapping on-disk symbol index -> build-model ID for relocation
// resolution.
func loadSymbols(b *Builder, f *elf.File, arena *Arena[Symbol], sections []*elf.Section, secIDs []ID, dynamic bool) ([]ID, error) {
	var syms []elf.Symbol
	var err error
	if dynamic {
		syms, err = f.DynamicSymbols()
	} else {
		syms, err = f.Symbols()
	}
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(syms))
	for i, s := range syms {
		ref := refFor(s.Section, secIDs)
		switch s.Shndx {
		case types.SHN_ABS:
			ref = SectionRef{Special: RefAbs}
		case types.SHN_COMMON:
			ref = SectionRef{Special: RefCommon}
		case types.SHN_UNDEF:
			ref = SectionRef{Special: RefUndef}
		}
		ids[i] = arena.Add(Symbol{
			Name: s.Name, Bind: s.Bind(), Type: s.Type(), Vis: s.Vis(),
			Ref: ref, Value: s.Value, Size: s.Size,
		})
	}
	return ids, nil
}

func loadVersions(b *Builder, f *elf.File) error {
	defs, err := f.VersionDefs()
	if err != nil {
		return err
	}
	for _, d := range defs {
		b.VerDefs = append(b.VerDefs, VerdefEntry{
			Version: d.Version, Flags: d.Flags, Ndx: d.Ndx, Hash: d.Hash, AuxNames: d.AuxNames,
		})
	}
	needs, err := f.VersionNeeds()
	if err != nil {
		return err
	}
	for _, n := range needs {
		ve := VerneedEntry{File: n.File}
		for _, a := range n.Aux {
			ve.Aux = append(ve.Aux, VerneedAux{Hash: a.Hash, Flags: a.Flags, Other: a.Other, Name: a.Name})
		}
		b.VerNeeds = append(b.VerNeeds, ve)
	}
	return nil
}

// loadSegments copies the program header table, resolving which
// sections each segment covers by overlapping file ranges.
func loadSegments(b *Builder, f *elf.File, secIDs []ID) error {
	for _, p := range f.Progs {
		seg := Segment{Type: p.Type, Flags: p.Flags, Vaddr: p.Vaddr, Paddr: p.Paddr,
			Memsz: p.Memsz, Filesz: p.Filesz, Off: p.Off, Align: p.Align}
		pEnd := p.Off + p.Filesz
		for i, s := range f.Sections {
			if s.Type == types.SHT_NOBITS {
				if !s.Flags.Alloc() {
					continue
				}
				if s.Addr >= p.Vaddr && s.Addr < p.Vaddr+p.Memsz {
					seg.Sections = append(seg.Sections, secIDs[i])
				}
				continue
			}
			if !s.Flags.Alloc() || s.Size == 0 {
				continue
			}
			sEnd := s.Off + s.Size
			if s.Off >= p.Off && sEnd <= pEnd {
				seg.Sections = append(seg.Sections, secIDs[i])
			}
		}
		b.Segments.Add(seg)
	}
	return nil
}
