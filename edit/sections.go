package edit

import "github.com/blacktop/go-elf/build"

// DeleteSections flags sections with matching names for deletion.
// Associated program headers are left to the section mover's orphan
// pass.
func DeleteSections(b *build.Builder, names []string) {
	want := toSet(names)
	b.Sections.Each(func(_ build.ID, s *build.Section) {
		if want[s.Name] {
			s.Deleted = true
		}
	})
	b.MarkModified()
}

// RenameSections replaces section names present as keys in m.
func RenameSections(b *build.Builder, m map[string]string) {
	b.Sections.Each(func(_ build.ID, s *build.Section) {
		if to, ok := m[s.Name]; ok {
			s.Name = to
		}
	})
	b.MarkModified()
}
