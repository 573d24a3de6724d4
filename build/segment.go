package build

import "github.com/blacktop/go-elf/elf/types"

// Segment is a build-model program-header entry. Sections is an
// ordered list of the section IDs the segment currently covers; a
// segment with no remaining live sections is orphaned and purged by
// the mover's first pass.
type Segment struct {
	Type   types.ProgType
	Flags  types.ProgFlag
	Vaddr  uint64
	Paddr  uint64
	Memsz  uint64
	Filesz uint64
	Off    uint64
	Align  uint64

	Sections []ID
}

// Orphan reports whether every section this segment covers has been
// deleted, or, for a PT_LOAD segment, whether it never covered any. A
// non-PT_LOAD segment with an empty section list is not an orphan.
func (b *Builder) Orphan(seg *Segment) bool {
	if len(seg.Sections) == 0 {
		return seg.Type == types.PT_LOAD
	}
	for _, id := range seg.Sections {
		s := b.Sections.Get(id)
		if s != nil && !s.Deleted {
			return false
		}
	}
	return true
}

// AddLoadSegment appends a new PT_LOAD segment with the given flags
// and alignment and an empty section list.
func (b *Builder) AddLoadSegment(flags types.ProgFlag, align uint64) (ID, *Segment) {
	id := b.Segments.Add(Segment{Type: types.PT_LOAD, Flags: flags, Align: align})
	return id, b.Segments.Get(id)
}

// CopySegment duplicates an existing segment's header fields into a
// new segment with an empty section list, used when the mover splits a
// straddling segment.
func (b *Builder) CopySegment(existing ID) (ID, *Segment) {
	src := b.Segments.Get(existing)
	cp := Segment{Type: src.Type, Flags: src.Flags, Vaddr: src.Vaddr, Paddr: src.Paddr,
		Memsz: src.Memsz, Filesz: src.Filesz, Off: src.Off, Align: src.Align}
	id := b.Segments.Add(cp)
	return id, b.Segments.Get(id)
}

// AppendSection adds a section to a segment and recomputes the
// segment's address/file ranges to cover it.
func (b *Builder) AppendSection(seg *Segment, sec ID) {
	seg.Sections = append(seg.Sections, sec)
	b.RecalculateRanges(seg)
}

// RecalculateRanges sets vaddr/memsz/offset/filesz to the contiguous
// span of the segment's remaining (non-deleted) sections.
func (b *Builder) RecalculateRanges(seg *Segment) {
	var lo, hiVaddr, hiFile uint64
	first := true
	for _, id := range seg.Sections {
		s := b.Sections.Get(id)
		if s == nil || s.Deleted {
			continue
		}
		end := s.Addr + s.Size
		foff := s.Off + s.Size
		if first {
			lo = s.Addr
			seg.Off = s.Off
			hiVaddr = end
			hiFile = foff
			first = false
			continue
		}
		if s.Addr < lo {
			lo = s.Addr
		}
		if s.Off < seg.Off {
			seg.Off = s.Off
		}
		if end > hiVaddr {
			hiVaddr = end
		}
		if foff > hiFile {
			hiFile = foff
		}
	}
	if first {
		return
	}
	seg.Vaddr = lo
	seg.Paddr = lo
	seg.Memsz = hiVaddr - lo
	seg.Filesz = hiFile - seg.Off
}
