package edit

import (
	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
)

// ErrSymbolReferenced is returned by DeleteSymbols/DeleteDynamicSymbols
// when a live (non-deleted) relocation still points at a symbol being
// flagged for deletion: this engine refuses rather than cascading, so a
// dangling relocation symbol index is never silently produced. The
// caller must explicitly also drop the relocation (or the referencing
// section) first.
var ErrSymbolReferenced = elf.NewError(elf.ModifyFailed, "symbol is still referenced by a live relocation")

func referencedIDs(b *build.Builder, dynamic bool) map[build.ID]bool {
	refs := map[build.ID]bool{}
	b.Sections.Each(func(_ build.ID, s *build.Section) {
		if s.Deleted {
			return
		}
		switch s.Payload {
		case build.PayloadRel, build.PayloadRela, build.PayloadDynamicRel:
			// The symbol table a relocation section targets is named by
			// its sh_link, already resolved to a build-model section;
			// regular symbol IDs and dynamic symbol IDs are both
			// 1-based per-arena, so they must not be merged without
			// knowing which arena the link section is.
			linked := b.Sections.Get(s.Link)
			targetsDynamic := linked != nil && linked.Payload == build.PayloadDynsym
			if targetsDynamic != dynamic {
				return
			}
			for _, r := range s.Relocs {
				if r.Sym == 0 {
					continue
				}
				refs[r.Sym] = true
			}
		}
	})
	return refs
}

// DeleteSymbols flags regular (.symtab) symbols with matching names
// for deletion, refusing if a live relocation still references one of
// them (see ErrSymbolReferenced).
func DeleteSymbols(b *build.Builder, names []string) error {
	return deleteSymbols(b, &b.Symbols, names, false)
}

// DeleteDynamicSymbols is DeleteSymbols for .dynsym entries.
func DeleteDynamicSymbols(b *build.Builder, names []string) error {
	return deleteSymbols(b, &b.DynSymbols, names, true)
}

func deleteSymbols(b *build.Builder, arena *build.Arena[build.Symbol], names []string, dynamic bool) error {
	want := toSet(names)
	refs := referencedIDs(b, dynamic)
	var toDelete []build.ID
	arena.Each(func(id build.ID, s *build.Symbol) {
		if want[s.Name] && !s.Deleted {
			toDelete = append(toDelete, id)
		}
	})
	for _, id := range toDelete {
		if refs[id] {
			return ErrSymbolReferenced
		}
	}
	for _, id := range toDelete {
		arena.Get(id).Deleted = true
	}
	b.MarkModified()
	return nil
}

// RenameSymbols replaces .symtab symbol names per m.
func RenameSymbols(b *build.Builder, m map[string]string) {
	build.RenameByMap(&b.Symbols, m)
	b.MarkModified()
}

// RenameDynamicSymbols replaces .dynsym symbol names per m.
func RenameDynamicSymbols(b *build.Builder, m map[string]string) {
	build.RenameByMap(&b.DynSymbols, m)
	b.MarkModified()
}
