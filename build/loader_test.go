package build

import (
	"encoding/binary"
	"testing"

	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

// buildMinimalELF64 hand-assembles a tiny valid little-endian ELF64
// relocatable object: one PROGBITS section, a symtab/strtab pair with
// a single global function symbol, and a shstrtab. Mirrors the fixture
// in package elf's own tests, kept separate since build cannot reach
// across an internal test file in another package.
func buildMinimalELF64(t *testing.T) []byte {
	t.Helper()
	bo := binary.LittleEndian

	text := []byte{0x90, 0x90, 0xc3}

	strtab := []byte{0} // empty string at offset 0
	fooOff := uint32(len(strtab))
	strtab = append(strtab, append([]byte("foo"), 0)...)

	shstrtab := []byte{0}
	add := func(s string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, append([]byte(s), 0)...)
		return off
	}
	textNameOff := add(".text")
	strtabNameOff := add(".strtab")
	symtabNameOff := add(".symtab")
	shstrtabNameOff := add(".shstrtab")

	var sym0, sym1 types.Sym
	sym1 = types.Sym{Name: fooOff, Info: types.ST_INFO(types.STB_GLOBAL, types.STT_FUNC), Shndx: 1, Size: uint64(len(text))}
	symtab := make([]byte, 2*types.Sym64Size)
	sym0.Put64(symtab[0:], bo)
	sym1.Put64(symtab[types.Sym64Size:], bo)

	const ehSize = types.FileHeaderSize64
	const shEntSize = types.Section64Size

	textOff := uint64(ehSize)
	strtabOff := textOff + uint64(len(text))
	symtabOff := strtabOff + uint64(len(strtab))
	shstrtabOff := symtabOff + uint64(len(symtab))
	shoff := shstrtabOff + uint64(len(shstrtab))

	const shnum = 5
	buf := make([]byte, shoff+shnum*shEntSize)
	copy(buf[textOff:], text)
	copy(buf[strtabOff:], strtab)
	copy(buf[symtabOff:], symtab)
	copy(buf[shstrtabOff:], shstrtab)

	secs := []types.SectionHeader{
		{},
		{Name: textNameOff, Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR,
			Addr: 0x1000, Off: textOff, Size: uint64(len(text)), Addralign: 16},
		{Name: strtabNameOff, Type: types.SHT_STRTAB, Off: strtabOff, Size: uint64(len(strtab)), Addralign: 1},
		{Name: symtabNameOff, Type: types.SHT_SYMTAB, Off: symtabOff, Size: uint64(len(symtab)),
			Link: 2, Info: 1, Addralign: 8, Entsize: types.Sym64Size},
		{Name: shstrtabNameOff, Type: types.SHT_STRTAB, Off: shstrtabOff, Size: uint64(len(shstrtab)), Addralign: 1},
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

func TestFromViewCopiesSectionsAndSymbols(t *testing.T) {
	f, err := elf.Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("elf.Open: %v", err)
	}
	b, err := FromView(f)
	if err != nil {
		t.Fatalf("FromView: %v", err)
	}
	if b.Sections.Len() != 5 {
		t.Fatalf("Sections.Len() = %d; want 5", b.Sections.Len())
	}
	if b.Symbols.Len() != 2 {
		t.Fatalf("Symbols.Len() = %d; want 2 (null + foo)", b.Symbols.Len())
	}

	var foundText bool
	b.Sections.Each(func(_ ID, s *Section) {
		if s.Name == ".text" {
			foundText = true
			if s.Payload != PayloadRaw {
				t.Errorf(".text payload kind = %v; want PayloadRaw", s.Payload)
			}
			if len(s.Raw) != 3 {
				t.Errorf("len(.text Raw) = %d; want 3", len(s.Raw))
			}
		}
	})
	if !foundText {
		t.Error(".text section was not copied into the build model")
	}

	var foundFoo bool
	b.Symbols.Each(func(_ ID, s *Symbol) {
		if s.Name == "foo" {
			foundFoo = true
			if s.Bind != types.STB_GLOBAL || s.Type != types.STT_FUNC {
				t.Errorf("foo bind/type = %v/%v; want GLOBAL/FUNC", s.Bind, s.Type)
			}
			if s.Ref.Special != RefNone {
				t.Errorf("foo Ref.Special = %v; want RefNone (resolves to a real section)", s.Ref.Special)
			}
		}
	})
	if !foundFoo {
		t.Error("foo symbol was not copied into the build model")
	}
}

func TestFromViewDefaultsLoadAlign(t *testing.T) {
	f, err := elf.Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("elf.Open: %v", err)
	}
	b, err := FromView(f)
	if err != nil {
		t.Fatalf("FromView: %v", err)
	}
	if b.LoadAlign != defaultLoadAlign {
		t.Errorf("LoadAlign = %#x; want default %#x", b.LoadAlign, defaultLoadAlign)
	}
}

func TestFromViewPreservesHeaderFields(t *testing.T) {
	f, err := elf.Open(buildMinimalELF64(t))
	if err != nil {
		t.Fatalf("elf.Open: %v", err)
	}
	b, err := FromView(f)
	if err != nil {
		t.Fatalf("FromView: %v", err)
	}
	if b.Machine != types.EM_X86_64 {
		t.Errorf("Machine = %v; want EM_X86_64", b.Machine)
	}
	if b.Class != types.ELFCLASS64 || b.Data != types.ELFDATA2LSB {
		t.Errorf("Class/Data = %v/%v; want ELFCLASS64/ELFDATA2LSB", b.Class, b.Data)
	}
}
