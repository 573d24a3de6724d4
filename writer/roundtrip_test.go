package writer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
	"github.com/blacktop/go-elf/mover"
)

// newRoundtripBuilder hand-assembles a build model with two alloc
// PROGBITS sections already placed at disjoint file offsets, each
// congruent to its address modulo the 0x1000 page size (mimicking what build.FromView or a prior mover.Run pass
// would have left behind) plus a PT_LOAD segment per section and a
// PT_PHDR segment describing the program header table itself.
func newRoundtripBuilder() *build.Builder {
	b := build.New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	b.Type = types.ET_EXEC
	b.Machine = types.EM_X86_64

	text := make([]byte, 0x20)
	for i := range text {
		text[i] = 0x90
	}
	text[len(text)-1] = 0xc3

	data := make([]byte, 0x10)
	for i := range data {
		data[i] = byte(i + 1)
	}

	textID := b.Sections.Add(build.Section{
		Name: ".text", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR,
		Addr: 0x1000 + 0x120, Off: 0x120, Size: uint64(len(text)), Align: 16,
		Payload: build.PayloadRaw, Raw: text,
	})
	dataID := b.Sections.Add(build.Section{
		Name: ".data", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_WRITE,
		Addr: 0x2000 + 0x140, Off: 0x1140, Size: uint64(len(data)), Align: 8,
		Payload: build.PayloadRaw, Raw: data,
	})

	b.Sections.Add(build.Section{
		Name: ".shstrtab", Type: types.SHT_STRTAB, Payload: build.PayloadShstrtab,
	})

	_, phdr := b.AddLoadSegment(types.PF_R, 8)
	phdr.Type = types.PT_PHDR
	phdr.Off, phdr.Vaddr, phdr.Paddr = uint64(types.FileHeaderSize64), 0x1000+uint64(types.FileHeaderSize64), 0x1000+uint64(types.FileHeaderSize64)
	phdr.Filesz, phdr.Memsz = types.Prog64Size, types.Prog64Size // stale, sized for itself only

	_, rx := b.AddLoadSegment(types.PF_R|types.PF_X, 0x1000)
	rx.Sections = []build.ID{textID}
	b.RecalculateRanges(rx)

	_, rw := b.AddLoadSegment(types.PF_R|types.PF_W, 0x1000)
	rw.Sections = []build.ID{dataID}
	b.RecalculateRanges(rw)

	return b
}

// TestMoverThenWriterRoundTripsSectionBytesAtDeclaredOffsets is the
// end-to-end exercise of the mover/writer pipeline: a build model is
// resized by mover.Run, serialized by writer.Emit, then re-parsed by
// elf.Open; the .text and .data bytes must be found at exactly the
// file offset their section headers declare, and every PT_LOAD file
// range must lie inside the output.
func TestMoverThenWriterRoundTripsSectionBytesAtDeclaredOffsets(t *testing.T) {
	b := newRoundtripBuilder()
	origText := append([]byte(nil), b.Sections.Get(1).Raw...)
	origData := append([]byte(nil), b.Sections.Get(2).Raw...)

	if err := mover.Run(b); err != nil {
		t.Fatalf("mover.Run: %v", err)
	}
	out, err := Emit(b)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	f, err := elf.Open(out)
	if err != nil {
		t.Fatalf("elf.Open(round-tripped output): %v", err)
	}

	var gotText, gotData []byte
	var textOff, dataOff uint64
	for _, s := range f.Sections {
		switch s.Name {
		case ".text":
			gotText, err = s.Data()
			textOff = s.Off
		case ".data":
			gotData, err = s.Data()
			dataOff = s.Off
		}
		if err != nil {
			t.Fatalf("Section(%s).Data: %v", s.Name, err)
		}
	}
	if diff := cmp.Diff(origText, gotText); diff != "" {
		t.Errorf(".text bytes changed across round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(origData, gotData); diff != "" {
		t.Errorf(".data bytes changed across round trip (-want +got):\n%s", diff)
	}

	// Every PT_LOAD program header's declared file range must lie
	// inside the output buffer.
	for _, p := range f.Progs {
		if p.Type != types.PT_LOAD {
			continue
		}
		if p.Off+p.Filesz > uint64(len(out)) {
			t.Fatalf("PT_LOAD off=%#x filesz=%#x exceeds output length %d", p.Off, p.Filesz, len(out))
		}
	}
	if textOff == 0 || dataOff == 0 {
		t.Fatalf("section offsets not resolved: .text=%#x .data=%#x", textOff, dataOff)
	}
	if got := out[textOff : textOff+uint64(len(origText))]; !cmp.Equal(got, origText) {
		t.Errorf(".text bytes at declared section offset %#x do not match original", textOff)
	}
	if got := out[dataOff : dataOff+uint64(len(origData))]; !cmp.Equal(got, origData) {
		t.Errorf(".data bytes at declared section offset %#x do not match original", dataOff)
	}

	// The PT_PHDR segment must have been resized for the segment count
	// mover.Run left behind: phnum * entsize.
	var phdr *elf.Prog
	for _, p := range f.Progs {
		if p.Type == types.PT_PHDR {
			phdr = p
		}
	}
	if phdr == nil {
		t.Fatal("PT_PHDR segment missing from round-tripped output")
	}
	want := uint64(len(f.Progs)) * types.Prog64Size
	if phdr.Filesz != want || phdr.Memsz != want {
		t.Errorf("PT_PHDR filesz/memsz = %d/%d; want %d (phnum=%d)", phdr.Filesz, phdr.Memsz, want, len(f.Progs))
	}
}
