// Package mover decides, after edits change section sizes or delete
// sections, which alloc sections must relocate, synthesizes new
// PT_LOAD segments for them, and splits any non-PT_LOAD segment that
// would otherwise straddle the new boundary.
package mover

import (
	"sort"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

// movePriority ranks how free a section is to relocate: 0 is pinned by
// address references, 2 is pure loader metadata.
func movePriority(b *build.Builder, id build.ID, s *build.Section) int {
	if s.Flags.TLS() {
		return 0
	}
	switch s.Type {
	case types.SHT_PROGBITS, types.SHT_DYNAMIC, types.SHT_NOBITS:
		return 0
	case types.SHT_REL, types.SHT_RELA:
		if s.Info == 0 {
			return 0 // dynamic relocations: address-referenced by the loader
		}
		return 2
	case types.SHT_SYMTAB, types.SHT_DYNSYM, types.SHT_STRTAB,
		types.SHT_HASH, types.SHT_GNU_HASH, types.SHT_GNU_VERSYM,
		types.SHT_GNU_VERDEF, types.SHT_GNU_VERNEED, types.SHT_NOTE,
		types.SHT_GNU_ATTRIBUTES, types.SHT_SYMTAB_SHNDX:
		return 2
	}
	if isInterpSection(b, id) {
		return 1
	}
	return 0
}

func isInterpSection(b *build.Builder, id build.ID) bool {
	found := false
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type != types.PT_INTERP {
			return
		}
		for _, sid := range seg.Sections {
			if sid == id {
				found = true
			}
		}
	})
	return found
}

type block struct {
	id       build.ID // zero for sentinel blocks
	addr     uint64
	size     uint64
	priority int
	sentinel bool
}

// Run executes the fixed-point layout algorithm against b, mutating
// section offsets/addresses and synthesizing PT_LOAD segments as
// needed. On failure the builder is left partially modified and must
// be discarded by the caller.
func Run(b *build.Builder) error {
	purgeOrphans(b)
	recomputeSizes(b)

	addedSegments := 0
	for {
		blocks := collectBlocks(b)
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].addr != blocks[j].addr {
				return blocks[i].addr < blocks[j].addr
			}
			return blocks[i].size < blocks[j].size
		})

		moveSet := map[build.ID]bool{}
		for i := 0; i+1 < len(blocks); i++ {
			a, c := blocks[i], blocks[i+1]
			if a.sentinel || c.sentinel {
				continue
			}
			if a.addr+a.size <= c.addr {
				continue // no overlap
			}
			switch {
			case a.priority == 0 && c.priority == 0:
				return elf.NewError(elf.LayoutFailed, "overlapping immovable sections")
			case a.priority >= c.priority:
				moveSet[a.id] = true
			default:
				moveSet[c.id] = true
			}
		}
		b.Sections.Each(func(id build.ID, s *build.Section) {
			if !s.Deleted && s.Flags.Alloc() && s.Off == 0 && s.Size > 0 {
				moveSet[id] = true
			}
		})

		flagGroups := groupByFlags(b, moveSet)
		straddles := countStraddlingSegments(b, moveSet)
		needed := len(flagGroups) + straddles

		if needed <= addedSegments {
			return finalize(b, moveSet, flagGroups, straddles)
		}
		addedSegments = needed
	}
}

func purgeOrphans(b *build.Builder) {
	var keep []build.Segment
	b.Segments.Each(func(id build.ID, seg *build.Segment) {
		if b.Orphan(seg) {
			return
		}
		keep = append(keep, *seg)
	})
	b.Segments = build.Arena[build.Segment]{}
	for _, s := range keep {
		b.Segments.Add(s)
	}

	var defs []build.VerdefEntry
	used := referencedVersionIndices(b)
	for _, d := range b.VerDefs {
		if used[uint32(d.Ndx)] {
			defs = append(defs, d)
		}
	}
	b.VerDefs = defs
}

// referencedVersionIndices returns the index of every entry in
// b.VerDefs. Versym entries are not consulted, so purgeOrphans keeps
// every version definition, referenced or not.
func referencedVersionIndices(b *build.Builder) map[uint32]bool {
	all := map[uint32]bool{}
	for _, d := range b.VerDefs {
		all[uint32(d.Ndx)] = true
	}
	return all
}

func recomputeSizes(b *build.Builder) {
	b.Sections.Each(func(_ build.ID, s *build.Section) {
		if s.Deleted {
			return
		}
		switch s.Payload {
		case build.PayloadRaw, build.PayloadUninitialized, build.PayloadStrtab,
			build.PayloadShstrtab, build.PayloadDynstr:
			s.Size = uint64(len(s.Raw))
		}
	})
}

func collectBlocks(b *build.Builder) []block {
	var blocks []block
	blocks = append(blocks, block{sentinel: true, addr: 0, size: 1})
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		blocks = append(blocks, block{sentinel: true, addr: seg.Vaddr, size: 1})
		blocks = append(blocks, block{sentinel: true, addr: seg.Vaddr + seg.Memsz, size: 1})
	})
	b.Sections.Each(func(id build.ID, s *build.Section) {
		if s.Deleted || !s.Flags.Alloc() || s.Size == 0 {
			return
		}
		blocks = append(blocks, block{id: id, addr: s.Addr, size: s.Size, priority: movePriority(b, id, s)})
	})
	return blocks
}

func groupByFlags(b *build.Builder, moveSet map[build.ID]bool) map[types.SectionFlag][]build.ID {
	groups := map[types.SectionFlag][]build.ID{}
	for id := range moveSet {
		s := b.Sections.Get(id)
		groups[s.Flags] = append(groups[s.Flags], id)
	}
	return groups
}

func countStraddlingSegments(b *build.Builder, moveSet map[build.ID]bool) int {
	count := 0
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_LOAD {
			return
		}
		moving, staying := false, false
		for _, id := range seg.Sections {
			if moveSet[id] {
				moving = true
			} else {
				staying = true
			}
		}
		if moving && staying {
			count++
		}
	})
	return count
}

func finalize(b *build.Builder, moveSet map[build.ID]bool, groups map[types.SectionFlag][]build.ID, straddles int) error {
	var flagKeys []types.SectionFlag
	for fl := range groups {
		flagKeys = append(flagKeys, fl)
	}
	sort.Slice(flagKeys, func(i, j int) bool { return flagKeys[i] < flagKeys[j] })

	var cursorAddr, cursorOff uint64
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		end := seg.Vaddr + seg.Memsz
		if end > cursorAddr {
			cursorAddr = end
			cursorOff = seg.Off + seg.Filesz
		}
	})
	// New segments start past the file header and the program header
	// table it will have once they are added, even with no segment yet.
	hdrEnd, entSize := uint64(types.FileHeaderSize32), uint64(types.Prog32Size)
	if b.Class == types.ELFCLASS64 {
		hdrEnd, entSize = uint64(types.FileHeaderSize64), uint64(types.Prog64Size)
	}
	hdrEnd += uint64(b.Segments.Len()+len(flagKeys)+straddles) * entSize
	if cursorOff < hdrEnd {
		cursorOff = hdrEnd
	}
	if cursorAddr < hdrEnd {
		cursorAddr = hdrEnd
	}

	for _, fl := range flagKeys {
		ids := groups[fl]
		sort.Slice(ids, func(i, j int) bool {
			si, sj := b.Sections.Get(ids[i]), b.Sections.Get(ids[j])
			if si.Addr != sj.Addr {
				return si.Addr < sj.Addr
			}
			return si.Size < sj.Size
		})
		progFlags := progFlagsFor(fl)
		_, seg := b.AddLoadSegment(progFlags, b.LoadAlign)
		cursorAddr = alignUp(cursorAddr, b.LoadAlign)
		cursorOff = alignUp(cursorOff, b.LoadAlign)
		for _, id := range ids {
			s := b.Sections.Get(id)
			s.Addr = cursorAddr
			s.Off = cursorOff
			seg.Sections = append(seg.Sections, id)
			cursorAddr += s.Size
			cursorOff += s.Size
		}
		b.RecalculateRanges(seg)
	}

	splitStraddling(b, moveSet)
	// SetInterpreter resizes the interpreter section; the PT_INTERP
	// range follows it here.
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_INTERP {
			b.RecalculateRanges(seg)
		}
	})
	updatePHDRSegment(b)
	return nil
}

// updatePHDRSegment resizes an existing PT_PHDR segment to cover the
// program header table's new byte size, after segments were added or
// split above. A PT_PHDR segment describes its own table's location,
// so growing phnum without updating it leaves filesz/memsz stale.
func updatePHDRSegment(b *build.Builder) {
	var phdr *build.Segment
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_PHDR {
			phdr = seg
		}
	})
	if phdr == nil {
		return
	}
	entSize := uint64(types.Prog32Size)
	if b.Class == types.ELFCLASS64 {
		entSize = types.Prog64Size
	}
	size := uint64(b.Segments.Len()) * entSize
	phdr.Filesz = size
	phdr.Memsz = size
}

func splitStraddling(b *build.Builder, moveSet map[build.ID]bool) {
	var segIDs []build.ID
	b.Segments.Each(func(id build.ID, seg *build.Segment) {
		if seg.Type == types.PT_LOAD {
			return
		}
		moving, staying := false, false
		for _, sid := range seg.Sections {
			if moveSet[sid] {
				moving = true
			} else {
				staying = true
			}
		}
		if moving && staying {
			segIDs = append(segIDs, id)
		}
	})
	// ascending address.
	sort.Slice(segIDs, func(i, j int) bool {
		return b.Segments.Get(segIDs[i]).Vaddr < b.Segments.Get(segIDs[j]).Vaddr
	})
	for _, id := range segIDs {
		orig := b.Segments.Get(id)
		var movedSections, staySections []build.ID
		for _, sid := range orig.Sections {
			if moveSet[sid] {
				movedSections = append(movedSections, sid)
			} else {
				staySections = append(staySections, sid)
			}
		}
		_, cp := b.CopySegment(id)
		cp.Sections = movedSections
		b.RecalculateRanges(cp)
		orig.Sections = staySections
		b.RecalculateRanges(orig)
	}
}

func progFlagsFor(fl types.SectionFlag) types.ProgFlag {
	f := types.PF_R
	if fl.Write() {
		f |= types.PF_W
	}
	if fl.Exec() {
		f |= types.PF_X
	}
	return f
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
