package vm

import (
	"github.com/sarchlab/minos/mem"
)

// A PageIterator walks the present leaf mappings of a space in
// ascending virtual-address order.
type PageIterator struct {
	space *Space
	va    uint64
	hi    uint64
}

// Pages returns an iterator over the present mappings in [lo, hi).
func (s *Space) Pages(lo, hi uint64) *PageIterator {
	return &PageIterator{
		space: s,
		va:    mem.PageFloor(lo),
		hi:    hi,
	}
}

// Next returns the next present mapping, or false when the range is
// exhausted.
func (it *PageIterator) Next() (Mapping, bool) {
	for it.va < it.hi {
		va := it.va
		it.va += mem.PageSize

		if m, ok := it.space.Lookup(va); ok {
			return m, true
		}
	}

	return Mapping{}, false
}

// TableFrames returns the frames holding the space's own non-root
// table nodes, deepest first, so that they can be released during
// teardown without walking freed memory.
func (s *Space) TableFrames() []mem.Frame {
	if s.root == mem.NoFrame {
		return nil
	}

	var frames []mem.Frame

	var descend func(table mem.Frame, level int)
	descend = func(table mem.Frame, level int) {
		if level == numLevels-1 {
			return
		}

		for idx := uint64(0); idx < entriesPerTable; idx++ {
			e := s.readEntry(table, idx)
			if e&PermPresent == 0 {
				continue
			}

			child := mem.FrameOf(e & entryAddrMask)
			descend(child, level+1)
			frames = append(frames, child)
		}
	}

	descend(s.root, 0)

	return frames
}
