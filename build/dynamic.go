package build

import "github.com/blacktop/go-elf/elf/types"

// Dynamic returns the section holding the dynamic-entry list, or nil
// if the object has none. At most one section may hold it.
func (b *Builder) Dynamic() *Section {
	if b.DynamicSection == 0 {
		return nil
	}
	return b.Sections.Get(b.DynamicSection)
}

// DynTagValues returns every dynamic entry whose tag equals t.
func DynTagValues(d *Section, t types.DynTag) []*DynamicEntry {
	var out []*DynamicEntry
	for i := range d.Dynamic {
		if d.Dynamic[i].Tag == t {
			out = append(out, &d.Dynamic[i])
		}
	}
	return out
}

// AppendDynamic appends a new integer-valued dynamic entry.
func AppendDynamic(d *Section, t types.DynTag, value uint64) {
	d.Dynamic = append(d.Dynamic, DynamicEntry{Tag: t, Value: value})
}

// AppendDynamicString appends a new string-valued dynamic entry.
func AppendDynamicString(d *Section, t types.DynTag, s string) {
	d.Dynamic = append(d.Dynamic, DynamicEntry{Tag: t, Str: s, IsStr: true})
}

// RemoveDynamicTags drops every entry whose tag is in tags.
func RemoveDynamicTags(d *Section, tags map[types.DynTag]bool) {
	kept := d.Dynamic[:0]
	for _, e := range d.Dynamic {
		if !tags[e.Tag] {
			kept = append(kept, e)
		}
	}
	d.Dynamic = kept
}
