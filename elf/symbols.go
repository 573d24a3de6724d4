package elf

import "github.com/blacktop/go-elf/elf/types"

// Symbol is a fully resolved symbol-table entry: the name has been
// looked up in the linked string table and the section index has been
// widened through its SYMTAB_SHNDX companion, if any.
type Symbol struct {
	types.Sym
	Name    string
	Index   int
	Section int // resolved on-disk section index; -1 for UNDEF/ABS/COMMON
}

func (f *File) readSymbols(symtab, strtab, shndx *Section) ([]Symbol, error) {
	if symtab == nil {
		return nil, nil
	}
	raw, err := symtab.Data()
	if err != nil {
		return nil, err
	}
	strData, err := strtab.Data()
	if err != nil {
		return nil, err
	}
	var shndxData []byte
	if shndx != nil {
		shndxData, err = shndx.Data()
		if err != nil {
			return nil, err
		}
	}

	size := types.Sym32Size
	if f.Ident.Class.Is64() {
		size = types.Sym64Size
	}
	if len(raw)%size != 0 {
		return nil, newErr(InvalidSize, "symbol table size is not a multiple of entry size")
	}
	n := len(raw) / size
	bo := f.ByteOrder.ByteOrder()
	out := make([]Symbol, n)
	for i := 0; i < n; i++ {
		b := raw[i*size : (i+1)*size]
		var s types.Sym
		if f.Ident.Class.Is64() {
			s = types.DecodeSym64(b, bo)
		} else {
			s = types.DecodeSym32(b, bo)
		}
		name, _ := cstr(strData, uint64(s.Name))
		sec := int(s.Shndx)
		if s.Shndx == types.SHN_XINDEX && len(shndxData) >= (i+1)*4 {
			sec = int(bo.Uint32(shndxData[i*4:]))
		}
		if s.Shndx == types.SHN_UNDEF || s.Shndx == types.SHN_ABS || s.Shndx == types.SHN_COMMON {
			sec = -1
		}
		out[i] = Symbol{Sym: s, Name: name, Index: i, Section: sec}
	}
	return out, nil
}

// Symbols returns the (lazily decoded) .symtab entries.
func (f *File) Symbols() ([]Symbol, error) {
	if f.symtabSec == nil {
		return nil, nil
	}
	if int(f.symtabSec.Link) >= len(f.Sections) {
		return nil, newErr(InvalidLink, ".symtab sh_link does not point at a string table")
	}
	return f.readSymbols(f.symtabSec, f.Sections[f.symtabSec.Link], f.shndxSec)
}

// DynamicSymbols returns the (lazily decoded) .dynsym entries.
func (f *File) DynamicSymbols() ([]Symbol, error) {
	if f.dynsymSec == nil {
		return nil, nil
	}
	if int(f.dynsymSec.Link) >= len(f.Sections) {
		return nil, newErr(InvalidLink, ".dynsym sh_link does not point at a string table")
	}
	return f.readSymbols(f.dynsymSec, f.Sections[f.dynsymSec.Link], f.dynShndxSec)
}

// SymbolByIndex returns the i'th regular symbol (1-indexed the same way
// as the relocation's r_sym, 0 is always the null symbol).
func (f *File) SymbolByIndex(i int) (Symbol, error) {
	syms, err := f.Symbols()
	if err != nil {
		return Symbol{}, err
	}
	if i < 0 || i >= len(syms) {
		return Symbol{}, newErr(InvalidLink, "symbol index out of range")
	}
	return syms[i], nil
}
