package writer

import (
	"encoding/binary"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

// writePhase is the writer's second pass: emit bytes in exactly the
// order they were reserved. Length invariant: the returned buffer's
// length equals the cursor reached at the end of reservePhase.
func (w *Writer) writePhase() ([]byte, error) {
	w.buf = make([]byte, w.cursor)
	bo := w.b.Data.ByteOrder()

	w.writeProgHeaders(bo)
	for _, sl := range w.reserved {
		s := w.b.Sections.Get(sl.id)
		if err := w.writeSection(bo, s, sl); err != nil {
			return nil, err
		}
	}
	w.writeSectionHeaders(bo)
	w.writeFileHeader(bo)

	if uint64(len(w.buf)) != w.cursor {
		return nil, elf.NewError(elf.LayoutFailed, "writer.reserved_len() != writer.len()")
	}
	return w.buf, nil
}

func (w *Writer) put(off uint64, b []byte) { copy(w.buf[off:], b) }

func (w *Writer) writeFileHeader(bo binary.ByteOrder) {
	h := types.FileHeader{
		Ident: w.b.Ident, Type: w.b.Type, Machine: w.b.Machine, Version: types.EV_CURRENT,
		Entry: w.b.Entry, Phoff: w.phdrOff, Shoff: w.shdrOff, Flags: w.b.Flags,
		Ehsize: uint16(w.ehSize), Phnum: uint16(w.b.Segments.Len()), Shnum: uint16(len(w.reserved) + 1),
		Shstrndx: w.shstrndx(),
	}
	if w.b.Class.Is64() {
		h.Phentsize = types.Prog64Size
		h.Shentsize = types.Section64Size
		h.Put64(w.buf, bo)
	} else {
		h.Phentsize = types.Prog32Size
		h.Shentsize = types.Section32Size
		h.Put32(w.buf, bo)
	}
}

func (w *Writer) shstrndx() uint16 {
	for i, sl := range w.reserved {
		if w.b.Sections.Get(sl.id).Payload == build.PayloadShstrtab {
			return uint16(i + 1) // +1: index 0 is the null section
		}
	}
	return 0
}

func (w *Writer) writeProgHeaders(bo binary.ByteOrder) {
	if w.b.Segments.Len() == 0 {
		return
	}
	entSize := uint64(classSize(w.b.Class, types.Prog64Size, types.Prog32Size))
	i := 0
	w.b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		ph := types.ProgHeader{Type: seg.Type, Flags: seg.Flags, Off: seg.Off, Vaddr: seg.Vaddr,
			Paddr: seg.Paddr, Filesz: seg.Filesz, Memsz: seg.Memsz, Align: seg.Align}
		b := make([]byte, entSize)
		if w.b.Class.Is64() {
			ph.Put64(b, bo)
		} else {
			ph.Put32(b, bo)
		}
		w.put(w.phdrOff+uint64(i)*entSize, b)
		i++
	})
}

func (w *Writer) writeSectionHeaders(bo binary.ByteOrder) {
	entSize := uint64(classSize(w.b.Class, types.Section64Size, types.Section32Size))
	// index 0: the null section header, all zero.
	for i, sl := range w.reserved {
		s := w.b.Sections.Get(sl.id)
		info := s.Info
		infoIsSectionIndex := s.Flags.InfoLink() ||
			((s.Payload == build.PayloadRel || s.Payload == build.PayloadRela) && s.Info != 0)
		if infoIsSectionIndex {
			if idx, ok := w.sectionIndex(build.ID(s.Info)); ok {
				info = idx
			}
		}
		link := uint32(0)
		if idx, ok := w.sectionIndex(s.Link); ok {
			link = idx
		}
		sh := types.SectionHeader{
			Name: w.secNameOff[sl.id], Type: s.Type, Flags: s.Flags, Addr: s.Addr,
			Off: sl.off, Size: sl.size, Link: link, Info: info, Addralign: s.Align, Entsize: s.Entsize,
		}
		b := make([]byte, entSize)
		if w.b.Class.Is64() {
			sh.Put64(b, bo)
		} else {
			sh.Put32(b, bo)
		}
		w.put(w.shdrOff+uint64(i+1)*entSize, b)
	}
}

// sectionIndex returns the final on-disk index (1-based past the null
// section) of a build-model section ID, if it is still live.
func (w *Writer) sectionIndex(id build.ID) (uint32, bool) {
	if id == 0 {
		return 0, false
	}
	for i, sl := range w.reserved {
		if sl.id == id {
			return uint32(i + 1), true
		}
	}
	return 0, false
}

func (w *Writer) writeSection(bo binary.ByteOrder, s *build.Section, sl sectionLayout) error {
	switch s.Payload {
	case build.PayloadUninitialized:
		return nil // NOBITS: nothing written
	case build.PayloadSymtab:
		w.writeSymbols(bo, sl.off, w.symOrder, &w.b.Symbols)
	case build.PayloadDynsym:
		w.writeSymbols(bo, sl.off, w.dynsymOrder, &w.b.DynSymbols)
	case build.PayloadSymtabShndx:
		w.writeShndxArray(bo, sl.off, w.symOrder, &w.b.Symbols)
	case build.PayloadRel, build.PayloadRela, build.PayloadDynamicRel:
		return w.writeRelocs(bo, s, sl)
	case build.PayloadDynamic:
		w.writeDynamic(bo, s, sl.off)
	case build.PayloadShstrtab:
		w.put(sl.off, w.shstrtab.Bytes())
	case build.PayloadStrtab:
		w.put(sl.off, w.strtab.Bytes())
	case build.PayloadDynstr:
		w.put(sl.off, w.dynstr.Bytes())
	case build.PayloadHash:
		w.writeStdHash(bo, sl.off)
	case build.PayloadGNUHash:
		w.writeGNUHash(bo, sl.off)
	case build.PayloadGNUVersym:
		w.writeVersym(bo, sl.off)
	case build.PayloadNotes:
		w.writeNotes(bo, s, sl.off)
	case build.PayloadAttributes:
		w.writeAttributes(bo, s, sl.off)
	case build.PayloadGNUVerdef:
		w.writeVerdef(bo, sl.off)
	case build.PayloadGNUVerneed:
		w.writeVerneed(bo, sl.off)
	default:
		w.put(sl.off, s.Raw)
	}
	return nil
}

func (w *Writer) writeSymbols(bo binary.ByteOrder, off uint64, order []build.ID, arena *build.Arena[build.Symbol]) {
	entSize := uint64(classSize(w.b.Class, types.Sym64Size, types.Sym32Size))
	for i, id := range order {
		var sym types.Sym
		name := uint32(0)
		if id != 0 {
			s := arena.Get(id)
			shndx, _ := w.symShndx(s)
			sym = types.Sym{
				Info:  types.ST_INFO(s.Bind, s.Type),
				Other: uint8(s.Vis),
				Shndx: shndx,
				Value: s.Value,
				Size:  s.Size,
			}
			if arena == &w.b.Symbols {
				name = w.strtab.offsets[s.Name]
			} else {
				name = w.dynstr.offsets[s.Name]
			}
			sym.Name = name
		}
		b := make([]byte, entSize)
		if w.b.Class.Is64() {
			sym.Put64(b, bo)
		} else {
			sym.Put32(b, bo)
		}
		w.put(off+uint64(i)*entSize, b)
	}
}

func (w *Writer) symShndx(s *build.Symbol) (uint16, bool) {
	switch s.Ref.Special {
	case build.RefAbs:
		return uint16(types.SHN_ABS), false
	case build.RefCommon:
		return uint16(types.SHN_COMMON), false
	case build.RefUndef:
		return uint16(types.SHN_UNDEF), false
	}
	if idx, ok := w.sectionIndex(s.Ref.Section); ok {
		if idx >= types.SHN_XINDEX {
			return uint16(types.SHN_XINDEX), true
		}
		return uint16(idx), false
	}
	return uint16(types.SHN_UNDEF), false
}

func (w *Writer) writeShndxArray(bo binary.ByteOrder, off uint64, order []build.ID, arena *build.Arena[build.Symbol]) {
	for i, id := range order {
		var v uint32
		if id != 0 {
			s := arena.Get(id)
			if _, overflow := w.symShndx(s); overflow {
				if real, ok := w.sectionIndex(s.Ref.Section); ok {
					v = real
				}
			}
		}
		bo.PutUint32(w.buf[off+uint64(i)*4:], v)
	}
}

func (w *Writer) writeRelocs(bo binary.ByteOrder, s *build.Section, sl sectionLayout) error {
	rela := isRela(s)
	entSize := uint64(classSize(w.b.Class, types.Rel64Size, types.Rel32Size))
	if rela {
		entSize = uint64(classSize(w.b.Class, types.Rela64Size, types.Rela32Size))
	}
	dynamic := s.Payload == build.PayloadDynamicRel
	for i, r := range s.Relocs {
		var symIdx uint32
		if r.Sym != 0 {
			if dynamic {
				symIdx = w.dynsymIndex[r.Sym]
			} else {
				symIdx = w.symIndex[r.Sym]
			}
		}
		b := make([]byte, entSize)
		if w.b.Class.Is64() {
			info := types.RInfo64(symIdx, r.Type, w.b.Machine, w.b.Data)
			if rela {
				rr := types.Rela{Offset: r.Offset, Info: info, Addend: r.Addend}
				rr.Put64(b, bo)
			} else {
				rr := types.Rel{Offset: r.Offset, Info: info}
				rr.Put64(b, bo)
			}
		} else {
			info := types.RInfo32(symIdx, r.Type)
			if rela {
				rr := types.Rela{Offset: r.Offset, Info: uint64(info), Addend: r.Addend}
				rr.Put32(b, bo)
			} else {
				rr := types.Rel{Offset: r.Offset, Info: uint64(info)}
				rr.Put32(b, bo)
			}
		}
		w.put(sl.off+uint64(i)*entSize, b)
	}
	return nil
}

func (w *Writer) writeDynamic(bo binary.ByteOrder, s *build.Section, off uint64) {
	entSize := uint64(classSize(w.b.Class, types.Dyn64Size, types.Dyn32Size))
	i := uint64(0)
	for _, e := range s.Dynamic {
		d := types.Dyn{Tag: e.Tag, Val: e.Value}
		if e.IsStr {
			d.Val = uint64(w.dynstr.Add(e.Str))
		}
		b := make([]byte, entSize)
		if w.b.Class.Is64() {
			d.Put64(b, bo)
		} else {
			d.Put32(b, bo)
		}
		w.put(off+i*entSize, b)
		i++
	}
	term := types.Dyn{Tag: types.DT_NULL}
	b := make([]byte, entSize)
	if w.b.Class.Is64() {
		term.Put64(b, bo)
	} else {
		term.Put32(b, bo)
	}
	w.put(off+i*entSize, b)
}

func (w *Writer) writeStdHash(bo binary.ByteOrder, off uint64) {
	_, bucket, chain := buildStdHash(w.hashesFor(w.dynsymOrder))
	bo.PutUint32(w.buf[off:], uint32(len(bucket)))
	bo.PutUint32(w.buf[off+4:], uint32(len(chain)))
	p := off + 8
	for _, v := range bucket {
		bo.PutUint32(w.buf[p:], v)
		p += 4
	}
	for _, v := range chain {
		bo.PutUint32(w.buf[p:], v)
		p += 4
	}
}

func (w *Writer) writeGNUHash(bo binary.ByteOrder, off uint64) {
	wordSize := uint64(classSize(w.b.Class, 8, 4))
	bloom, buckets, chain := buildGNUHash(w.gnuHashArray(), w.gnuSymOffset, w.gnuLayout, uint32(wordSize*8))
	bo.PutUint32(w.buf[off:], uint32(len(buckets)))
	bo.PutUint32(w.buf[off+4:], w.gnuSymOffset)
	bo.PutUint32(w.buf[off+8:], uint32(len(bloom)))
	bo.PutUint32(w.buf[off+12:], w.gnuLayout.Shift2)
	p := off + 16
	for _, v := range bloom {
		if wordSize == 8 {
			bo.PutUint64(w.buf[p:], v)
		} else {
			bo.PutUint32(w.buf[p:], uint32(v))
		}
		p += wordSize
	}
	for _, v := range buckets {
		bo.PutUint32(w.buf[p:], v)
		p += 4
	}
	for _, v := range chain {
		bo.PutUint32(w.buf[p:], v)
		p += 4
	}
}

// writeVersym fills .gnu.version with VER_NDX_GLOBAL for every real
// dynamic symbol; build.Symbol does not track a per-symbol version
// index (see DESIGN.md's versym open-question entry).
func (w *Writer) writeVersym(bo binary.ByteOrder, off uint64) {
	for i := range w.dynsymOrder {
		var v uint16
		if i > 0 {
			v = uint16(types.VER_NDX_GLOBAL)
		}
		bo.PutUint16(w.buf[off+uint64(i)*2:], v)
	}
}

func (w *Writer) writeNotes(bo binary.ByteOrder, s *build.Section, off uint64) {
	p := off
	for _, n := range s.Notes {
		nh := types.Nhdr{Namesz: uint32(len(n.Name)) + 1, Descsz: uint32(len(n.Desc)), Type: n.Type}
		b := make([]byte, types.NhdrSize)
		nh.Put(b, bo)
		w.put(p, b)
		p += uint64(types.NhdrSize)
		w.put(p, append([]byte(n.Name), 0))
		p = align4(p + uint64(len(n.Name)) + 1)
		w.put(p, n.Desc)
		p = align4(p + uint64(len(n.Desc)))
	}
}

func align4(v uint64) uint64 { return (v + 3) &^ 3 }

// writeVerdef re-threads .gnu.version_d's vd_next/vda_next offsets
// after edits may have changed auxiliary name strings: version records
// are re-emitted, not copied verbatim, since every name is re-interned
// into a fresh .dynstr.
func (w *Writer) writeVerdef(bo binary.ByteOrder, off uint64) {
	p := off
	for i, d := range w.b.VerDefs {
		rec := p
		vd := types.Verdef{
			Version: d.Version, Flags: d.Flags, Ndx: d.Ndx,
			Cnt: uint16(len(d.AuxNames)), Hash: d.Hash,
		}
		if len(d.AuxNames) > 0 {
			vd.Aux = uint32(types.VerdefSize)
		}
		last := i == len(w.b.VerDefs)-1
		if !last {
			vd.Next = uint32(types.VerdefSize) + uint32(len(d.AuxNames))*uint32(types.VerdauxSize)
		}
		b := make([]byte, types.VerdefSize)
		vd.Put(b, bo)
		w.put(rec, b)
		p += uint64(types.VerdefSize)

		for j, name := range d.AuxNames {
			va := types.Verdaux{Name: w.dynstr.Add(name)}
			if j != len(d.AuxNames)-1 {
				va.Next = uint32(types.VerdauxSize)
			}
			ab := make([]byte, types.VerdauxSize)
			va.Put(ab, bo)
			w.put(p, ab)
			p += uint64(types.VerdauxSize)
		}
	}
}

func (w *Writer) writeVerneed(bo binary.ByteOrder, off uint64) {
	p := off
	for i, v := range w.b.VerNeeds {
		rec := p
		vn := types.Verneed{
			Version: 1, Cnt: uint16(len(v.Aux)),
			File: w.dynstr.Add(v.File),
		}
		if len(v.Aux) > 0 {
			vn.Aux = uint32(types.VerneedSize)
		}
		last := i == len(w.b.VerNeeds)-1
		if !last {
			vn.Next = uint32(types.VerneedSize) + uint32(len(v.Aux))*uint32(types.VernauxSize)
		}
		b := make([]byte, types.VerneedSize)
		vn.Put(b, bo)
		w.put(rec, b)
		p += uint64(types.VerneedSize)

		for j, a := range v.Aux {
			vna := types.Vernaux{Hash: a.Hash, Flags: a.Flags, Other: a.Other, Name: w.dynstr.Add(a.Name)}
			if j != len(v.Aux)-1 {
				vna.Next = uint32(types.VernauxSize)
			}
			ab := make([]byte, types.VernauxSize)
			vna.Put(ab, bo)
			w.put(p, ab)
			p += uint64(types.VernauxSize)
		}
	}
}

func (w *Writer) writeAttributes(bo binary.ByteOrder, s *build.Section, off uint64) {
	p := off
	w.buf[p] = 'A'
	p++
	for _, va := range s.Attrs {
		sizeOff := p
		p += 4
		w.put(p, append([]byte(va.Vendor), 0))
		p += uint64(len(va.Vendor)) + 1
		for _, a := range va.Attributes {
			p = putUleb128(w.buf, p, a.Tag)
			if a.Tag%2 == 1 {
				p = putUleb128(w.buf, p, a.Value)
			} else {
				w.put(p, append([]byte(a.Str), 0))
				p += uint64(len(a.Str)) + 1
			}
		}
		bo.PutUint32(w.buf[sizeOff:], uint32(p-sizeOff))
	}
}

func putUleb128(buf []byte, off uint64, v uint64) uint64 {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[off] = b
		off++
		if v == 0 {
			return off
		}
	}
}
