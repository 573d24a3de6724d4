package build

import (
	"testing"

	"github.com/blacktop/go-elf/elf/types"
)

func TestOrphanEmptySegmentIsOrphanOnlyForLoad(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	loadSeg := Segment{Type: types.PT_LOAD}
	if !b.Orphan(&loadSeg) {
		t.Error("empty PT_LOAD segment should be orphaned")
	}
	noteSeg := Segment{Type: types.PT_NOTE}
	if b.Orphan(&noteSeg) {
		t.Error("empty non-PT_LOAD segment should not be treated as orphaned")
	}
}

func TestOrphanAllSectionsDeleted(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	id := b.Sections.Add(Section{Name: ".x", Deleted: true})
	seg := Segment{Type: types.PT_LOAD, Sections: []ID{id}}
	if !b.Orphan(&seg) {
		t.Error("segment whose only section is deleted should be orphaned")
	}
}

func TestOrphanLiveSectionNotOrphaned(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	id := b.Sections.Add(Section{Name: ".x"})
	seg := Segment{Type: types.PT_LOAD, Sections: []ID{id}}
	if b.Orphan(&seg) {
		t.Error("segment with a live section should not be orphaned")
	}
}

func TestAddLoadSegment(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	id, seg := b.AddLoadSegment(types.PF_R|types.PF_X, 0x1000)
	if seg.Type != types.PT_LOAD {
		t.Errorf("Type = %v; want PT_LOAD", seg.Type)
	}
	if got := b.Segments.Get(id); got != seg {
		t.Error("AddLoadSegment's returned pointer does not match arena storage")
	}
}

func TestCopySegmentCopiesHeaderNotSections(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	srcID, src := b.AddLoadSegment(types.PF_R, 0x1000)
	src.Vaddr, src.Memsz, src.Filesz, src.Off = 0x1000, 0x200, 0x200, 0x80
	sec := b.Sections.Add(Section{Name: ".a"})
	src.Sections = []ID{sec}

	_, cp := b.CopySegment(srcID)
	if cp.Vaddr != src.Vaddr || cp.Memsz != src.Memsz || cp.Off != src.Off {
		t.Errorf("CopySegment did not preserve header fields: %+v vs %+v", cp, src)
	}
	if len(cp.Sections) != 0 {
		t.Errorf("CopySegment copied %d sections; want an empty list", len(cp.Sections))
	}
}

func TestRecalculateRangesSpansLiveSections(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	a := b.Sections.Add(Section{Addr: 0x1000, Off: 0x100, Size: 0x40})
	bb := b.Sections.Add(Section{Addr: 0x1100, Off: 0x200, Size: 0x20})
	seg := Segment{Sections: []ID{a, bb}}
	b.RecalculateRanges(&seg)

	if seg.Vaddr != 0x1000 {
		t.Errorf("Vaddr = %#x; want 0x1000", seg.Vaddr)
	}
	if seg.Off != 0x100 {
		t.Errorf("Off = %#x; want 0x100", seg.Off)
	}
	if want := uint64(0x1100 + 0x20 - 0x1000); seg.Memsz != want {
		t.Errorf("Memsz = %#x; want %#x", seg.Memsz, want)
	}
}

func TestRecalculateRangesSkipsDeletedSections(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	live := b.Sections.Add(Section{Addr: 0x2000, Off: 0x300, Size: 0x10})
	dead := b.Sections.Add(Section{Addr: 0x1000, Off: 0x100, Size: 0x900, Deleted: true})
	seg := Segment{Sections: []ID{dead, live}}
	b.RecalculateRanges(&seg)

	if seg.Vaddr != 0x2000 {
		t.Errorf("Vaddr = %#x; want 0x2000 (deleted section should be ignored)", seg.Vaddr)
	}
}

func TestAppendSectionRecalculatesRanges(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	sec := b.Sections.Add(Section{Addr: 0x4000, Off: 0x500, Size: 0x30})
	seg := Segment{}
	b.AppendSection(&seg, sec)
	if len(seg.Sections) != 1 || seg.Sections[0] != sec {
		t.Fatalf("Sections = %v; want [%v]", seg.Sections, sec)
	}
	if seg.Vaddr != 0x4000 || seg.Memsz != 0x30 {
		t.Errorf("ranges not recalculated: Vaddr=%#x Memsz=%#x", seg.Vaddr, seg.Memsz)
	}
}
