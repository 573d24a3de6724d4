package edit

import (
	"strings"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf/types"
)

func isRunpathTag(t types.DynTag) bool {
	return t == types.DT_RUNPATH || t == types.DT_RPATH
}

// DeleteRunpath removes all DT_RUNPATH and DT_RPATH entries.
func DeleteRunpath(b *build.Builder) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	kept := d.Dynamic[:0]
	for _, e := range d.Dynamic {
		if isRunpathTag(e.Tag) {
			continue
		}
		kept = append(kept, e)
	}
	d.Dynamic = kept
	b.MarkModified()
	return nil
}

// SetRunpath sets every existing runpath/rpath entry's value to path,
// appending a new DT_RUNPATH if none exists.
func SetRunpath(b *build.Builder, path string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	found := false
	for i := range d.Dynamic {
		if isRunpathTag(d.Dynamic[i].Tag) {
			d.Dynamic[i].Str = path
			found = true
		}
	}
	if !found {
		build.AppendDynamicString(d, types.DT_RUNPATH, path)
	}
	b.MarkModified()
	return nil
}

// AddRunpath appends each path to the existing runpath/rpath value
// (colon-joined), or adds a new DT_RUNPATH with the joined list if
// none exists.
func AddRunpath(b *build.Builder, paths []string) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	add := strings.Join(paths, ":")
	found := false
	for i := range d.Dynamic {
		if isRunpathTag(d.Dynamic[i].Tag) {
			if d.Dynamic[i].Str == "" {
				d.Dynamic[i].Str = add
			} else {
				d.Dynamic[i].Str = d.Dynamic[i].Str + ":" + add
			}
			found = true
		}
	}
	if !found {
		build.AppendDynamicString(d, types.DT_RUNPATH, add)
	}
	b.MarkModified()
	return nil
}

// UseRunpath changes every DT_RPATH entry's tag to DT_RUNPATH.
func UseRunpath(b *build.Builder) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	for i := range d.Dynamic {
		if d.Dynamic[i].Tag == types.DT_RPATH {
			d.Dynamic[i].Tag = types.DT_RUNPATH
		}
	}
	b.MarkModified()
	return nil
}

// UseRpath changes every DT_RUNPATH entry's tag to DT_RPATH.
func UseRpath(b *build.Builder) error {
	d, err := dynamicOrErr(b)
	if err != nil {
		return err
	}
	for i := range d.Dynamic {
		if d.Dynamic[i].Tag == types.DT_RUNPATH {
			d.Dynamic[i].Tag = types.DT_RPATH
		}
	}
	b.MarkModified()
	return nil
}
