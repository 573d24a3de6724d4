package build

import (
	"testing"

	"github.com/blacktop/go-elf/elf/types"
)

func TestDynamicNilWhenNoSectionSet(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	if got := b.Dynamic(); got != nil {
		t.Errorf("Dynamic() = %v; want nil", got)
	}
}

func TestDynamicResolvesSetSection(t *testing.T) {
	b := New(types.ELFCLASS64, types.ELFDATA2LSB, 0x1000)
	id := b.Sections.Add(Section{Name: ".dynamic", Type: types.SHT_DYNAMIC})
	b.DynamicSection = id
	if got := b.Dynamic(); got != b.Sections.Get(id) {
		t.Error("Dynamic() did not resolve to the section named by DynamicSection")
	}
}

func TestDynTagValuesFiltersByTag(t *testing.T) {
	d := &Section{Dynamic: []DynamicEntry{
		{Tag: types.DT_NEEDED, Str: "a.so", IsStr: true},
		{Tag: types.DT_NEEDED, Str: "b.so", IsStr: true},
		{Tag: types.DT_SONAME, Str: "me.so", IsStr: true},
	}}
	got := DynTagValues(d, types.DT_NEEDED)
	if len(got) != 2 || got[0].Str != "a.so" || got[1].Str != "b.so" {
		t.Errorf("DynTagValues(DT_NEEDED) = %+v; want a.so, b.so", got)
	}
}

func TestDynTagValuesReturnsAliasingPointers(t *testing.T) {
	d := &Section{Dynamic: []DynamicEntry{{Tag: types.DT_NEEDED, Str: "a.so", IsStr: true}}}
	entries := DynTagValues(d, types.DT_NEEDED)
	entries[0].Str = "b.so"
	if d.Dynamic[0].Str != "b.so" {
		t.Error("DynTagValues entries do not alias the section's backing slice")
	}
}

func TestAppendDynamicAndAppendDynamicString(t *testing.T) {
	d := &Section{}
	AppendDynamic(d, types.DT_FLAGS, 7)
	AppendDynamicString(d, types.DT_SONAME, "lib.so.1")

	if len(d.Dynamic) != 2 {
		t.Fatalf("len(Dynamic) = %d; want 2", len(d.Dynamic))
	}
	if d.Dynamic[0].Tag != types.DT_FLAGS || d.Dynamic[0].Value != 7 || d.Dynamic[0].IsStr {
		t.Errorf("Dynamic[0] = %+v; want {DT_FLAGS 7 false}", d.Dynamic[0])
	}
	if d.Dynamic[1].Tag != types.DT_SONAME || d.Dynamic[1].Str != "lib.so.1" || !d.Dynamic[1].IsStr {
		t.Errorf("Dynamic[1] = %+v; want {DT_SONAME lib.so.1 true}", d.Dynamic[1])
	}
}

func TestRemoveDynamicTags(t *testing.T) {
	d := &Section{Dynamic: []DynamicEntry{
		{Tag: types.DT_NEEDED, Str: "a.so", IsStr: true},
		{Tag: types.DT_DEBUG},
		{Tag: types.DT_SONAME, Str: "me.so", IsStr: true},
	}}
	RemoveDynamicTags(d, map[types.DynTag]bool{types.DT_DEBUG: true})
	if len(d.Dynamic) != 2 {
		t.Fatalf("len(Dynamic) = %d; want 2", len(d.Dynamic))
	}
	for _, e := range d.Dynamic {
		if e.Tag == types.DT_DEBUG {
			t.Error("DT_DEBUG entry survived RemoveDynamicTags")
		}
	}
}
