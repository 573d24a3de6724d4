package build

import "github.com/blacktop/go-elf/elf/types"

// PayloadKind distinguishes what a Section's contents actually mean, so
// the writer can dispatch without re-deriving it from sh_type.
type PayloadKind int

const (
	PayloadRaw            PayloadKind = iota // arbitrary bytes, copied verbatim
	PayloadUninitialized                     // NOBITS: size only, no bytes
	PayloadDynamic                           // SHT_DYNAMIC entry list
	PayloadSymtab                            // SHT_SYMTAB marker; real data lives in the symbol arena
	PayloadDynsym                            // SHT_DYNSYM marker
	PayloadRel                               // SHT_REL relocation list
	PayloadRela                              // SHT_RELA relocation list
	PayloadDynamicRel                        // SHT_REL/RELA targeting the dynamic section (sh_info == 0)
	PayloadNotes                             // SHT_NOTE note list
	PayloadAttributes                        // SHT_GNU_ATTRIBUTES vendor subsections
	PayloadStrtab                            // a plain SHT_STRTAB not otherwise claimed below
	PayloadShstrtab                          // section-name string table
	PayloadDynstr                            // dynsym string table
	PayloadSymtabShndx                       // SHT_SYMTAB_SHNDX overflow array
	PayloadHash                              // SHT_HASH
	PayloadGNUHash                           // SHT_GNU_HASH
	PayloadGNUVersym                         // SHT_GNU_VERSYM
	PayloadGNUVerdef                         // SHT_GNU_VERDEF
	PayloadGNUVerneed                        // SHT_GNU_VERNEED
)

// Relocation is an owned, symbol-ID-resolved relocation entry:
// r_sym has already been turned into a build-model Symbol ID, so the
// writer only has to remap that ID through the final index assignment.
type Relocation struct {
	Offset uint64
	Sym    ID // into Symbols or DynSymbols, chosen by the owning Section's sh_link
	Type   uint32
	Addend int64
	HasAddend bool
}

// DynamicEntry is one owned dynamic-table row: either an integer value
// or a string value, copied by value out of .dynstr at load time so the
// owning Section no longer depends on the original string table.
type DynamicEntry struct {
	Tag    types.DynTag
	Value  uint64
	Str    string
	IsStr  bool
}

// Section is a build-model section entry. Name, payload bytes
// and relocation/dynamic/note lists are all owned copies; Off and the
// final Size are filled in by the writer during reserve.
type Section struct {
	Name    string
	Type    types.SectionType
	Flags   types.SectionFlag
	Addr    uint64
	Off     uint64 // 0 until the writer reserves space, or "moved" sentinel during mover passes
	Size    uint64
	Link    ID // resolved at load time where Link denotes another section (e.g. symtab -> strtab)
	Info    uint32
	Align   uint64
	Entsize uint64

	Payload PayloadKind
	Raw     []byte         // PayloadRaw
	Relocs  []Relocation   // PayloadRel/PayloadRela/PayloadDynamicRel
	Dynamic []DynamicEntry // PayloadDynamic
	Notes   []elfNote      // PayloadNotes
	Attrs   []vendorAttrs  // PayloadAttributes

	Deleted bool
}

// elfNote mirrors elf.Note without importing the read-view package
// back into build (the loader does the copy when a Builder is loaded).
type elfNote struct {
	Name string
	Type uint32
	Desc []byte
}

type vendorAttrs struct {
	Vendor     string
	Attributes []attrPair
}

type attrPair struct {
	Tag   uint64
	Value uint64
	Str   string
}
