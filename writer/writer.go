// Package writer implements a two-phase writer: phase 1 reserves file
// offsets and interns names/strings in a fixed, deterministic order;
// phase 2 emits bytes in that same order.
package writer

import (
	"sort"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

// reservation describes one planned output byte range. Nothing fills
// secReservations; reservePhase records each section's placement as a
// sectionLayout in reserved.
type reservation struct {
	sectionID build.ID // zero for the header/phdrs/shdrs pseudo-entries
	off       uint64
	size      uint64
}

// Writer drives the two-phase emission of a build.Builder.
type Writer struct {
	b   *build.Builder
	buf []byte

	cursor uint64 // next free file offset during reservation

	shstrtab *strtab
	strtab   *strtab
	dynstr   *strtab

	secReservations []reservation
	secNameOff      map[build.ID]uint32

	symOrder    []build.ID // final .symtab emission order (index 0 is the null symbol)
	dynsymOrder []build.ID // final .dynsym emission order, GNU-hash sorted
	symIndex    map[build.ID]uint32
	dynsymIndex map[build.ID]uint32

	dynsymHashes    map[build.ID]uint32 // gnuHash, valid only for hashed entries
	gnuSymOffset    uint32
	gnuLayout       gnuHashLayout

	shdrOff uint64
	phdrOff uint64
	ehSize  int

	reserved []sectionLayout
}

type sectionLayout struct {
	id      build.ID
	off     uint64
	size    uint64
}

func classSize(class types.Class, size64, size32 int) int {
	if class.Is64() {
		return size64
	}
	return size32
}

// New creates a Writer over b. reservePhase must run before
// writePhase; Emit runs both.
func New(b *build.Builder) *Writer {
	return &Writer{
		b:           b,
		shstrtab:    newStrtab(),
		strtab:      newStrtab(),
		dynstr:      newStrtab(),
		secNameOff:  map[build.ID]uint32{},
		symIndex:    map[build.ID]uint32{},
		dynsymIndex: map[build.ID]uint32{},
		dynsymHashes: map[build.ID]uint32{},
	}
}

func alignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

func (w *Writer) reserve(n uint64, align uint64) uint64 {
	w.cursor = alignUp(w.cursor, align)
	off := w.cursor
	w.cursor += n
	return off
}

// Emit runs both phases and returns the final byte image.
func Emit(b *build.Builder) ([]byte, error) {
	w := New(b)
	if err := w.reservePhase(); err != nil {
		return nil, err
	}
	return w.writePhase()
}

// reservePhase is the writer's first pass.
func (w *Writer) reservePhase() error {
	ehSize := classSize(w.b.Class, types.FileHeaderSize64, types.FileHeaderSize32)
	w.ehSize = ehSize
	w.cursor = uint64(ehSize)

	// program headers, directly after the file header if any segments
	// exist; the input's e_phoff is not consulted.
	phEntSize := uint64(classSize(w.b.Class, types.Prog64Size, types.Prog32Size))
	nSegs := w.b.Segments.Len()
	if nSegs > 0 {
		w.phdrOff = w.reserve(uint64(nSegs)*phEntSize, 8)
	}

	var order []build.ID
	w.b.Sections.Each(func(id build.ID, s *build.Section) {
		if !s.Deleted {
			order = append(order, id)
		}
	})
	sort.SliceStable(order, func(i, j int) bool {
		si, sj := w.b.Sections.Get(order[i]), w.b.Sections.Get(order[j])
		ai, aj := si.Flags.Alloc(), sj.Flags.Alloc()
		if ai != aj {
			return ai // alloc sections first, then non-alloc
		}
		return si.Off < sj.Off
	})

	for _, id := range order {
		s := w.b.Sections.Get(id)
		w.secNameOff[id] = w.shstrtab.Add(s.Name)
	}

	w.assignSymbolOrder()
	for _, id := range w.symOrder[1:] {
		s := w.b.Symbols.Get(id)
		w.strtab.Add(s.Name)
	}
	for _, id := range w.dynsymOrder[1:] {
		s := w.b.DynSymbols.Get(id)
		w.dynstr.Add(s.Name)
	}
	for _, d := range w.b.VerDefs {
		for _, name := range d.AuxNames {
			w.dynstr.Add(name)
		}
	}
	for _, v := range w.b.VerNeeds {
		w.dynstr.Add(v.File)
		for _, a := range v.Aux {
			w.dynstr.Add(a.Name)
		}
	}
	w.computeDynsymHashes()

	// Alloc sections were already given their final file offset by the
	// loader (kept) or the mover (newly placed); the cursor only needs
	// to be pushed past the highest one so non-alloc sections that
	// follow don't land on top of them.
	var allocEnd uint64
	for _, id := range order {
		s := w.b.Sections.Get(id)
		if !s.Flags.Alloc() || s.Type == types.SHT_NOBITS {
			continue
		}
		if end := s.Off + w.sectionSize(s); end > allocEnd {
			allocEnd = end
		}
	}
	if allocEnd > w.cursor {
		w.cursor = allocEnd
	}

	for _, id := range order {
		s := w.b.Sections.Get(id)
		size := w.sectionSize(s)
		align := s.Align
		if align == 0 {
			align = 1
		}
		var off uint64
		switch {
		case s.Type == types.SHT_NOBITS:
			off = s.Off
		case s.Flags.Alloc() && s.Off != 0:
			off = s.Off
		default:
			off = w.reserve(size, align)
		}
		s.Off = off
		w.reserved = append(w.reserved, sectionLayout{id: id, off: off, size: size})
	}

	shEntSize := uint64(classSize(w.b.Class, types.Section64Size, types.Section32Size))
	nSections := uint64(len(order)) + 1 // + null section at index 0
	align := uint64(classSize(w.b.Class, 8, 4))
	w.shdrOff = w.reserve(nSections*shEntSize, align)

	return nil
}

// sectionSize computes the final on-disk size of a section's payload
// for reservation purposes: structural payloads are sized from their
// owning arena rather than s.Size, which may be stale.
func (w *Writer) sectionSize(s *build.Section) uint64 {
	entSize := func(size32, size64 int) uint64 {
		if w.b.Class.Is64() {
			return uint64(size64)
		}
		return uint64(size32)
	}
	switch s.Payload {
	case build.PayloadSymtab:
		return uint64(len(w.symOrder)) * uint64(classSize(w.b.Class, types.Sym64Size, types.Sym32Size))
	case build.PayloadDynsym:
		return uint64(len(w.dynsymOrder)) * uint64(classSize(w.b.Class, types.Sym64Size, types.Sym32Size))
	case build.PayloadRel:
		return uint64(len(s.Relocs)) * entSize(types.Rel32Size, types.Rel64Size)
	case build.PayloadRela, build.PayloadDynamicRel:
		if isRela(s) {
			return uint64(len(s.Relocs)) * entSize(types.Rela32Size, types.Rela64Size)
		}
		return uint64(len(s.Relocs)) * entSize(types.Rel32Size, types.Rel64Size)
	case build.PayloadDynamic:
		n := uint64(len(s.Dynamic)) + 1 // + DT_NULL terminator
		return n * entSize(types.Dyn32Size, types.Dyn64Size)
	case build.PayloadShstrtab:
		return uint64(w.shstrtab.Len())
	case build.PayloadStrtab:
		return uint64(w.strtab.Len())
	case build.PayloadDynstr:
		return uint64(w.dynstr.Len())
	case build.PayloadSymtabShndx:
		return uint64(len(w.symOrder)) * 4
	case build.PayloadGNUVersym:
		return uint64(len(w.dynsymOrder)) * 2
	case build.PayloadHash:
		_, bucket, chain := buildStdHash(w.hashesFor(w.dynsymOrder))
		return uint64(2+len(bucket)+len(chain)) * 4
	case build.PayloadGNUHash:
		wordSize := uint64(classSize(w.b.Class, 8, 4))
		bloom, buckets, chain := buildGNUHash(w.gnuHashArray(), w.gnuSymOffset, w.gnuLayout, uint32(wordSize*8))
		return 16 + uint64(len(bloom))*wordSize + uint64(len(buckets))*4 + uint64(len(chain))*4
	case build.PayloadGNUVerdef:
		n := uint64(0)
		for _, d := range w.b.VerDefs {
			n += uint64(types.VerdefSize) + uint64(len(d.AuxNames))*uint64(types.VerdauxSize)
		}
		return n
	case build.PayloadGNUVerneed:
		n := uint64(0)
		for _, v := range w.b.VerNeeds {
			n += uint64(types.VerneedSize) + uint64(len(v.Aux))*uint64(types.VernauxSize)
		}
		return n
	case build.PayloadNotes, build.PayloadAttributes, build.PayloadUninitialized:
		return s.Size
	default:
		return uint64(len(s.Raw))
	}
}

func isRela(s *build.Section) bool {
	if s.Payload == build.PayloadRela {
		return true
	}
	if s.Payload != build.PayloadDynamicRel {
		return false
	}
	return len(s.Relocs) > 0 && s.Relocs[0].HasAddend
}

func (w *Writer) hashesFor(order []build.ID) []uint32 {
	out := make([]uint32, len(order))
	for i, id := range order {
		if i == 0 {
			continue
		}
		out[i] = w.dynsymHashes[id]
	}
	return out
}

func (w *Writer) gnuHashArray() []uint32 {
	return w.hashesFor(w.dynsymOrder)
}

// assignSymbolOrder fixes the final emission order for both symbol
// tables: index 0 is always the null symbol; regular symbols keep
// load order; dynamic symbols are partitioned so unhashed entries
// (empty name) precede hashed ones, sorted by gnu_hash % bucket_count,
// since dynamic-symbol index feeds the hash chain array directly; this
// sort must precede dynamic-symbol-index assignment.
func (w *Writer) assignSymbolOrder() {
	w.symOrder = append(w.symOrder, 0)
	w.b.Symbols.Each(func(id build.ID, s *build.Symbol) {
		if !s.Deleted {
			w.symOrder = append(w.symOrder, id)
		}
	})
	for i, id := range w.symOrder {
		w.symIndex[id] = uint32(i)
	}

	var unhashed, hashed []build.ID
	w.b.DynSymbols.Each(func(id build.ID, s *build.Symbol) {
		if s.Deleted {
			return
		}
		if s.Name == "" {
			unhashed = append(unhashed, id)
		} else {
			hashed = append(hashed, id)
		}
	})
	w.gnuLayout = gnuHashLayout{Buckets: stdBucketCount(uint32(len(hashed)) + 1), Shift2: 6, MaskWords: 1}

	hashes := make(map[build.ID]uint32, len(hashed))
	for _, id := range hashed {
		s := w.b.DynSymbols.Get(id)
		hashes[id] = gnuHash(s.Name)
	}
	sort.SliceStable(hashed, func(i, j int) bool {
		return hashes[hashed[i]]%w.gnuLayout.Buckets < hashes[hashed[j]]%w.gnuLayout.Buckets
	})

	w.dynsymOrder = append(w.dynsymOrder, 0)
	w.dynsymOrder = append(w.dynsymOrder, unhashed...)
	w.gnuSymOffset = uint32(len(w.dynsymOrder))
	w.dynsymOrder = append(w.dynsymOrder, hashed...)
	for i, id := range w.dynsymOrder {
		w.dynsymIndex[id] = uint32(i)
	}
	w.dynsymHashesFromMap(hashes)
}

func (w *Writer) dynsymHashesFromMap(m map[build.ID]uint32) {
	for id, h := range m {
		w.dynsymHashes[id] = h
	}
}

// computeDynsymHashes stores both the standard ELF hash and the GNU
// hash on every live dynamic symbol with a non-empty name.
func (w *Writer) computeDynsymHashes() {
	w.b.DynSymbols.Each(func(id build.ID, s *build.Symbol) {
		if s.Deleted || s.Name == "" {
			return
		}
		s.StdHash = elfHash(s.Name)
		s.GNUHash = gnuHash(s.Name)
	})
}

// errf is a small local alias for elf.NewError; nothing in this
// package calls it. The engine's single Error type already carries a
// Category.
func errf(cat elf.Category, msg string) error { return elf.NewError(cat, msg) }
