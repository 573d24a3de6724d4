package edit

import (
	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

func dynamicOrErr(b *build.Builder) (*build.Section, error) {
	d := b.Dynamic()
	if d == nil {
		return nil, elf.NewError(elf.ModifyFailed, "no dynamic section")
	}
	return d, nil
}

// DeleteNeeded removes DT_NEEDED entries whose value is in names.
func DeleteNeeded(b *build.Builder, names []string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	want := toSet(names)
	kept := d.Dynamic[:0]
	for _, e := range d.Dynamic {
		if e.Tag == types.DT_NEEDED && want[e.Str] {
			continue
		}
		kept = append(kept, e)
	}
	d.Dynamic = kept
	b.MarkModified()
	return nil
}

// ReplaceNeeded replaces DT_NEEDED values found as keys in m with their
// mapped value.
func ReplaceNeeded(b *build.Builder, m map[string]string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	for i := range d.Dynamic {
		if d.Dynamic[i].Tag != types.DT_NEEDED {
			continue
		}
		if to, ok := m[d.Dynamic[i].Str]; ok {
			d.Dynamic[i].Str = to
		}
	}
	b.MarkModified()
	return nil
}

// AddNeeded prepends a new DT_NEEDED entry for every name not already
// present, in reverse so the final order matches the input list.
func AddNeeded(b *build.Builder, names []string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	existing := map[string]bool{}
	for _, e := range d.Dynamic {
		if e.Tag == types.DT_NEEDED {
			existing[e.Str] = true
		}
	}
	for i := len(names) - 1; i >= 0; i-- {
		n := names[i]
		if existing[n] {
			continue
		}
		entry := build.DynamicEntry{Tag: types.DT_NEEDED, Str: n, IsStr: true}
		d.Dynamic = append([]build.DynamicEntry{entry}, d.Dynamic...)
		existing[n] = true
	}
	b.MarkModified()
	return nil
}

// SetSoname sets every DT_SONAME entry's value to name, appending one
// if none exists.
func SetSoname(b *build.Builder, name string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	found := false
	for i := range d.Dynamic {
		if d.Dynamic[i].Tag == types.DT_SONAME {
			d.Dynamic[i].Str = name
			found = true
		}
	}
	if !found {
		build.AppendDynamicString(d, types.DT_SONAME, name)
	}
	b.MarkModified()
	return nil
}

// AddDynamicDebug appends a DT_DEBUG entry with value 0 if none exists.
func AddDynamicDebug(b *build.Builder) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	for _, e := range d.Dynamic {
		if e.Tag == types.DT_DEBUG {
			return nil
		}
	}
	build.AppendDynamic(d, types.DT_DEBUG, 0)
	b.MarkModified()
	return nil
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
