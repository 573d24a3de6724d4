package mover

import (
	"testing"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf/types"
)

func newBuilder() *build.Builder {
	return build.New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
}

func TestRunPlacesUnlaidSectionsIntoNewLoadSegments(t *testing.T) {
	b := newBuilder()
	text := b.Sections.Add(build.Section{
		Name: ".text", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR,
		Size: 0x100, Align: 16, Payload: build.PayloadRaw, Raw: make([]byte, 0x100),
	})
	data := b.Sections.Add(build.Section{
		Name: ".data", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_WRITE,
		Size: 0x40, Align: 8, Payload: build.PayloadRaw, Raw: make([]byte, 0x40),
	})

	if err := Run(b); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ts, ds := b.Sections.Get(text), b.Sections.Get(data)
	if ts.Off == 0 || ds.Off == 0 {
		t.Fatalf(".text/.data were not given file offsets: .text.Off=%d .data.Off=%d", ts.Off, ds.Off)
	}
	if ts.Addr == ds.Addr {
		t.Fatalf(".text and .data were placed at the same address %#x", ts.Addr)
	}

	loadSegs := 0
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_LOAD {
			loadSegs++
		}
	})
	// RX and RW sections carry different flag sets, so the mover groups
	// them into two distinct PT_LOAD segments.
	if loadSegs != 2 {
		t.Errorf("synthesized %d PT_LOAD segments; want 2 (one per distinct flag group)", loadSegs)
	}
}

func TestRunRejectsOverlappingImmovableSections(t *testing.T) {
	b := newBuilder()
	// Two PROGBITS sections (movePriority 0, pinned) given the same
	// nonzero file offset and overlapping size can never be resolved.
	b.Sections.Add(build.Section{
		Name: ".a", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC,
		Addr: 0x1000, Off: 0x1000, Size: 0x100, Payload: build.PayloadRaw, Raw: make([]byte, 0x100),
	})
	b.Sections.Add(build.Section{
		Name: ".b", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC,
		Addr: 0x1080, Off: 0x1080, Size: 0x100, Payload: build.PayloadRaw, Raw: make([]byte, 0x100),
	})

	if err := Run(b); err == nil {
		t.Fatal("Run over two overlapping pinned sections: want error, got nil")
	}
}

func TestPurgeOrphansRemovesSegmentWithOnlyDeletedSections(t *testing.T) {
	b := newBuilder()
	sec := b.Sections.Add(build.Section{Name: ".old", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC, Size: 0x10})
	b.Sections.Get(sec).Deleted = true
	segID, seg := b.AddLoadSegment(types.PF_R, 0x1000)
	seg.Sections = []build.ID{sec}
	_ = segID

	purgeOrphans(b)

	remaining := 0
	b.Segments.Each(func(_ build.ID, s *build.Segment) { remaining++ })
	if remaining != 0 {
		t.Errorf("orphaned PT_LOAD segment survived purgeOrphans: %d segments remain", remaining)
	}
}

func TestPurgeOrphansKeepsSegmentWithLiveSection(t *testing.T) {
	b := newBuilder()
	live := b.Sections.Add(build.Section{Name: ".live", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC, Size: 0x10})
	_, seg := b.AddLoadSegment(types.PF_R, 0x1000)
	seg.Sections = []build.ID{live}

	purgeOrphans(b)

	remaining := 0
	b.Segments.Each(func(_ build.ID, s *build.Segment) { remaining++ })
	if remaining != 1 {
		t.Errorf("segment with a live section was purged: %d segments remain, want 1", remaining)
	}
}

func TestMovePriorityTLSIsPinned(t *testing.T) {
	b := newBuilder()
	id := b.Sections.Add(build.Section{Name: ".tdata", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_TLS})
	if got := movePriority(b, id, b.Sections.Get(id)); got != 0 {
		t.Errorf("movePriority(.tdata) = %d; want 0 (pinned)", got)
	}
}

func TestMovePriorityMetadataIsFree(t *testing.T) {
	b := newBuilder()
	id := b.Sections.Add(build.Section{Name: ".symtab", Type: types.SHT_SYMTAB})
	if got := movePriority(b, id, b.Sections.Get(id)); got != 2 {
		t.Errorf("movePriority(.symtab) = %d; want 2 (pure metadata)", got)
	}
}

func TestRunResizesPTPHDRSegmentToNewProgramHeaderCount(t *testing.T) {
	b := newBuilder()
	_, phdr := b.AddLoadSegment(types.PF_R, 8)
	phdr.Type = types.PT_PHDR
	phdr.Filesz = types.Prog64Size // stale: sized for a single entry
	phdr.Memsz = types.Prog64Size

	b.Sections.Add(build.Section{
		Name: ".text", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR,
		Size: 0x100, Align: 16, Payload: build.PayloadRaw, Raw: make([]byte, 0x100),
	})
	b.Sections.Add(build.Section{
		Name: ".data", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_WRITE,
		Size: 0x40, Align: 8, Payload: build.PayloadRaw, Raw: make([]byte, 0x40),
	})

	if err := Run(b); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantSegs := uint64(b.Segments.Len())
	wantSize := wantSegs * types.Prog64Size

	var got *build.Segment
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_PHDR {
			got = seg
		}
	})
	if got == nil {
		t.Fatal("PT_PHDR segment vanished during Run")
	}
	if got.Filesz != wantSize || got.Memsz != wantSize {
		t.Errorf("PT_PHDR filesz/memsz = %d/%d; want %d (phnum=%d * entsize %d)",
			got.Filesz, got.Memsz, wantSize, wantSegs, types.Prog64Size)
	}
}

func TestProgFlagsFor(t *testing.T) {
	f := progFlagsFor(types.SHF_ALLOC | types.SHF_WRITE | types.SHF_EXECINSTR)
	if f&types.PF_R == 0 || f&types.PF_W == 0 || f&types.PF_X == 0 {
		t.Errorf("progFlagsFor(RWX section) = %v; want PF_R|PF_W|PF_X", f)
	}
}
