package build

import "github.com/blacktop/go-elf/elf/types"

// VerdefEntry and VerneedEntry are owned, writer-independent copies of
// the read view's version records: auxiliary names are stored
// by value rather than as dynstr offsets, since the writer re-interns
// every string at serialize time.
type VerdefEntry struct {
	Version  uint16
	Flags    uint16
	Ndx      uint16
	Hash     uint32
	AuxNames []string
}

type VerneedEntry struct {
	File string
	Aux  []VerneedAux
}

type VerneedAux struct {
	Hash  uint32
	Flags uint16
	Other uint16
	Name  string
}

// Builder is the root of the mutable build model. It owns every
// arena; nothing outside Builder holds mutable ELF state.
type Builder struct {
	Class types.Class
	Data  types.Data

	Ident   types.Ident
	Type    types.Type
	Machine types.Machine
	Entry   uint64
	Flags   uint32

	LoadAlign uint64

	Segments    Arena[Segment]
	Sections    Arena[Section]
	Symbols     Arena[Symbol]    // regular .symtab
	DynSymbols  Arena[Symbol]    // .dynsym

	VerDefs  []VerdefEntry
	VerNeeds []VerneedEntry

	// DynamicSection names which Section (by ID) holds the
	// PayloadDynamic entry list; zero if the object has none. At most
	// one such section can exist in a well-formed object.
	DynamicSection ID

	Modified bool
}

// New returns an empty Builder for the given class/endianness, ready
// to be populated either by the loader or by hand-built tests.
func New(class types.Class, data types.Data, loadAlign uint64) *Builder {
	return &Builder{Class: class, Data: data, LoadAlign: loadAlign}
}

// MarkModified sets the root's modified flag; every editor operation
// in package edit calls this.
func (b *Builder) MarkModified() {
	b.Modified = true
}
