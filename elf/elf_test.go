package elf

import (
	"encoding/binary"
	"testing"

	"github.com/blacktop/go-elf/elf/types"
)

// strtabBuilder is a tiny standalone string-table accumulator used only
// to synthesize test fixtures; the real interning logic lives in
// writer.strtab and is exercised by that package's own tests.
type strtabBuilder struct{ buf []byte }

func newStrtabBuilder() *strtabBuilder { return &strtabBuilder{buf: []byte{0}} }

func (s *strtabBuilder) add(str string) uint32 {
	off := uint32(len(s.buf))
	s.buf = append(s.buf, []byte(str)...)
	s.buf = append(s.buf, 0)
	return off
}

// buildMinimalELF64 assembles a tiny, valid little-endian ELF64
// relocatable object by hand: one PROGBITS section, a symtab/strtab
// pair with a single global function symbol, and a shstrtab - enough
// to exercise elf.Open's section/symbol decoding end to end without a
// real linker-produced fixture on disk.
func buildMinimalELF64(t *testing.T) []byte {
	t.Helper()
	bo := binary.LittleEndian

	text := []byte("\x90\x90\xc3") // nop; nop; ret

	strtab := newStrtabBuilder()
	fooOff := strtab.add("foo")

	shstrtab := newStrtabBuilder()
	textNameOff := shstrtab.add(".text")
	strtabNameOff := shstrtab.add(".strtab")
	symtabNameOff := shstrtab.add(".symtab")
	shstrtabNameOff := shstrtab.add(".shstrtab")

	var sym0, sym1 types.Sym
	sym1 = types.Sym{
		Name: fooOff, Info: types.ST_INFO(types.STB_GLOBAL, types.STT_FUNC),
		Other: byte(types.STV_DEFAULT), Shndx: 1, Value: 0, Size: uint64(len(text)),
	}
	symtab := make([]byte, 2*types.Sym64Size)
	sym0.Put64(symtab[0:], bo)
	sym1.Put64(symtab[types.Sym64Size:], bo)

	const ehSize = types.FileHeaderSize64
	const shEntSize = types.Section64Size

	textOff := uint64(ehSize)
	strtabOff := textOff + uint64(len(text))
	symtabOff := strtabOff + uint64(len(strtab.buf))
	shstrtabOff := symtabOff + uint64(len(symtab))
	shoff := shstrtabOff + uint64(len(shstrtab.buf))

	const shnum = 5
	buf := make([]byte, shoff+shnum*shEntSize)
	copy(buf[textOff:], text)
	copy(buf[strtabOff:], strtab.buf)
	copy(buf[symtabOff:], symtab)
	copy(buf[shstrtabOff:], shstrtab.buf)

	secs := []types.SectionHeader{
		{}, // SHT_NULL
		{Name: textNameOff, Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR,
			Addr: 0x1000, Off: textOff, Size: uint64(len(text)), Addralign: 16},
		{Name: strtabNameOff, Type: types.SHT_STRTAB, Off: strtabOff, Size: uint64(len(strtab.buf)), Addralign: 1},
		{Name: symtabNameOff, Type: types.SHT_SYMTAB, Off: symtabOff, Size: uint64(len(symtab)),
			Link: 2, Info: 1, Addralign: 8, Entsize: types.Sym64Size},
		{Name: shstrtabNameOff, Type: types.SHT_STRTAB, Off: shstrtabOff, Size: uint64(len(shstrtab.buf)), Addralign: 1},
	}
	for i, sh := range secs {
		sh := sh
		sh.Put64(buf[shoff+uint64(i)*shEntSize:], bo)
	}

	h := &types.FileHeader{
		Ident:     types.Ident{Class: types.ELFCLASS64, Data: types.ELFDATA2LSB, OSABI: types.ELFOSABI_LINUX},
		Type:      types.ET_REL,
		Machine:   types.EM_X86_64,
		Version:   types.EV_CURRENT,
		Shoff:     shoff,
		Ehsize:    ehSize,
		Shentsize: shEntSize,
		Shnum:     shnum,
		Shstrndx:  4,
	}
	h.Put64(buf, bo)
	return buf
}

func TestOpenMinimalELF64(t *testing.T) {
	data := buildMinimalELF64(t)
	f, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Ident.Class != types.ELFCLASS64 || f.Ident.Data != types.ELFDATA2LSB {
		t.Errorf("Ident = %+v; want class=64 data=LSB", f.Ident)
	}
	if len(f.Sections) != 5 {
		t.Fatalf("len(Sections) = %d; want 5", len(f.Sections))
	}
	if f.Sections[1].Name != ".text" {
		t.Errorf("Sections[1].Name = %q; want %q", f.Sections[1].Name, ".text")
	}
}

func TestSectionByName(t *testing.T) {
	f, err := Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s := f.SectionByName(".text"); s == nil {
		t.Fatal("SectionByName(.text) = nil")
	}
	if s := f.SectionByName(".bss"); s != nil {
		t.Errorf("SectionByName(.bss) = %v; want nil", s)
	}
}

func TestSectionDataReturnsExactBytes(t *testing.T) {
	f, err := Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := f.SectionByName(".text").Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	want := []byte{0x90, 0x90, 0xc3}
	if len(data) != len(want) {
		t.Fatalf("len(.text data) = %d; want %d", len(data), len(want))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("byte %d = %#x; want %#x", i, data[i], want[i])
		}
	}
}

func TestSymbols(t *testing.T) {
	f, err := Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	syms, err := f.Symbols()
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("len(Symbols()) = %d; want 2 (null + foo)", len(syms))
	}
	if syms[1].Name != "foo" {
		t.Errorf("Symbols()[1].Name = %q; want %q", syms[1].Name, "foo")
	}
	if syms[1].Bind() != types.STB_GLOBAL || syms[1].Type() != types.STT_FUNC {
		t.Errorf("Symbols()[1] bind/type = %v/%v; want GLOBAL/FUNC", syms[1].Bind(), syms[1].Type())
	}
	if syms[1].Section != 1 {
		t.Errorf("Symbols()[1].Section = %d; want 1", syms[1].Section)
	}
}

func TestDetect(t *testing.T) {
	data := buildMinimalELF64(t)
	kind, err := Detect(data)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if kind.Class != types.ELFCLASS64 || kind.Data != types.ELFDATA2LSB {
		t.Errorf("Detect = %+v; want {ELFCLASS64 ELFDATA2LSB}", kind)
	}

	if _, err := Detect([]byte{0, 1, 2, 3}); err == nil {
		t.Error("Detect on non-ELF bytes: want error, got nil")
	}
}
