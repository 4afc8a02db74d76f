package vm

import (
	"fmt"
	"log"

	"github.com/sarchlab/minos/mem"
)

// A Space is one address space: a four-level page table rooted at a
// single frame. A space is exclusively owned by one process, except
// for the kernel-region target frames it shares with every other
// space.
type Space struct {
	storage *mem.Storage
	alloc   *mem.PageAllocator
	root    mem.Frame
}

// NewSpace creates an empty address space. It fails when no frame is
// available for the root table.
func NewSpace(
	storage *mem.Storage,
	alloc *mem.PageAllocator,
) (*Space, error) {
	root, ok := alloc.Allocate(mem.PageSize)
	if !ok {
		return nil, fmt.Errorf("out of physical memory for page table")
	}

	return &Space{
		storage: storage,
		alloc:   alloc,
		root:    root,
	}, nil
}

// Root returns the frame holding the top-level table, or NoFrame after
// the space has been destroyed.
func (s *Space) Root() mem.Frame {
	return s.root
}

func (s *Space) readEntry(table mem.Frame, idx uint64) uint64 {
	e, err := s.storage.ReadWord(table.Addr() + idx*8)
	dieOnErr(err)

	return e
}

func (s *Space) writeEntry(table mem.Frame, idx, entry uint64) {
	dieOnErr(s.storage.WriteWord(table.Addr()+idx*8, entry))
}

// walk descends the table to the leaf entry covering va. With create
// set, missing intermediate tables are allocated on demand; the walk
// then fails only when such an allocation fails. Without create, a
// missing intermediate terminates the walk.
func (s *Space) walk(va uint64, create bool) (table mem.Frame, ok bool, err error) {
	table = s.root

	for level := 0; level < numLevels-1; level++ {
		idx := levelIndex(va, level)
		e := s.readEntry(table, idx)

		if e&PermPresent == 0 {
			if !create {
				return mem.NoFrame, false, nil
			}

			f, allocated := s.alloc.Allocate(mem.PageSize)
			if !allocated {
				return mem.NoFrame, false, fmt.Errorf(
					"out of physical memory for page table at va %#x", va)
			}

			s.writeEntry(table, idx, f.Addr()|intermediatePerm)
			table = f

			continue
		}

		table = mem.FrameOf(e & entryAddrMask)
	}

	return table, true, nil
}

// Map installs one page-granularity translation from va to pa,
// allocating intermediate table frames on demand. An existing
// translation at va is overwritten. Map fails only when an
// intermediate frame cannot be allocated. The perm argument must
// include PermPresent for the mapping to take effect.
func (s *Space) Map(va, pa, perm uint64) error {
	if !mem.Aligned(va) || !mem.Aligned(pa) {
		panic(fmt.Sprintf("mapping unaligned va %#x -> pa %#x", va, pa))
	}

	leafTable, _, err := s.walk(va, true)
	if err != nil {
		return err
	}

	s.writeEntry(leafTable, levelIndex(va, numLevels-1), pa|perm)

	return nil
}

// Unmap removes the translation at va, if present. The target frame is
// not released; that is the caller's decision.
func (s *Space) Unmap(va uint64) {
	leafTable, ok, _ := s.walk(va, false)
	if !ok {
		return
	}

	s.writeEntry(leafTable, levelIndex(va, numLevels-1), 0)
}

// Lookup returns the present mapping covering va, if any.
func (s *Space) Lookup(va uint64) (Mapping, bool) {
	leafTable, ok, _ := s.walk(va, false)
	if !ok {
		return Mapping{}, false
	}

	e := s.readEntry(leafTable, levelIndex(va, numLevels-1))
	if e&PermPresent == 0 {
		return Mapping{}, false
	}

	return Mapping{
		VA:    mem.PageFloor(va),
		Frame: mem.FrameOf(e & entryAddrMask),
		Perm:  e &^ entryAddrMask,
	}, true
}

// Destroy tears the space down: every present user-region mapping
// except the pinned console frame is released, then every table frame,
// then the root. Destroy is safe on a partially built space and on a
// space that has already been destroyed.
func (s *Space) Destroy() {
	if s.root == mem.NoFrame {
		return
	}

	it := s.Pages(mem.UserStart, mem.VirtualCeiling)
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		if !m.User() || m.Frame == mem.ConsoleFrame {
			continue
		}

		s.alloc.Free(m.Frame)
	}

	for _, tf := range s.TableFrames() {
		s.alloc.Free(tf)
	}

	s.alloc.Free(s.root)
	s.root = mem.NoFrame
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
