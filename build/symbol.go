package build

import "github.com/blacktop/go-elf/elf/types"

// SectionRef names where a symbol points: either a regular section ID,
// or one of the three special on-disk markers that are not real
// section indices: UNDEF, ABS, or COMMON.
type SectionRef struct {
	Section ID // valid only when Special == RefNone
	Special SpecialRef
}

type SpecialRef int

const (
	RefNone SpecialRef = iota
	RefUndef
	RefAbs
	RefCommon
)

// Symbol is a build-model symbol entry, regular or dynamic. The
// GNU/standard hash fields of dynamic symbols are filled in by the
// writer during reserve, before its GNU-hash sort step; the loader
// leaves them zero.
type Symbol struct {
	Name       string
	Bind       types.SymBind
	Type       types.SymType
	Vis        types.SymVis
	Ref        SectionRef
	Value      uint64
	Size       uint64

	Deleted bool

	// dynamic symbols only
	StdHash uint32
	GNUHash uint32
}

// DeleteByName flags every symbol (regular or dynamic, chosen by the
// caller) whose name is in names for deletion. The writer skips
// deleted symbols entirely.
func DeleteByName(arena *Arena[Symbol], names map[string]bool) {
	arena.Each(func(_ ID, s *Symbol) {
		if names[s.Name] {
			s.Deleted = true
		}
	})
}

// RenameByMap replaces symbol names present as keys in m with their
// mapped value.
func RenameByMap(arena *Arena[Symbol], m map[string]string) {
	arena.Each(func(_ ID, s *Symbol) {
		if to, ok := m[s.Name]; ok {
			s.Name = to
		}
	})
}
