package edit

import (
	"strings"

	"github.com/blacktop/go-elf/build"
	"github.com/blacktop/go-elf/elf"
	"github.com/blacktop/go-elf/elf/types"
)

// SetInterpreter replaces the contents of the PT_INTERP-backed
// section's payload with path, appending a null terminator if absent.
// The PT_INTERP segment's own range is left for the mover to
// recompute once the section's size changes.
func SetInterpreter(b *build.Builder, path string) error {
	var interpSeg *build.Segment
	b.Segments.Each(func(_ build.ID, seg *build.Segment) {
		if seg.Type == types.PT_INTERP {
			interpSeg = seg
		}
	})
	if interpSeg == nil || len(interpSeg.Sections) == 0 {
		return elf.NewError(elf.ModifyFailed, "no PT_INTERP segment")
	}
	sec := b.Sections.Get(interpSeg.Sections[0])
	if sec == nil {
		return elf.NewError(elf.ModifyFailed, "no PT_INTERP segment")
	}
	if !strings.HasSuffix(path, "\x00") {
		path += "\x00"
	}
	sec.Raw = []byte(path)
	sec.Size = uint64(len(sec.Raw))
	b.MarkModified()
	return nil
}
