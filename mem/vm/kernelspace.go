package vm

import (
	"fmt"

	"github.com/sarchlab/minos/mem"
)

// NewKernelSpace builds the kernel's own address space: an identity
// mapping of the whole physical memory, supervisor-only below
// UserStart except for the console frame, which additionally carries
// the user bit. Address zero stays unmapped so that null dereferences
// fault.
func NewKernelSpace(
	storage *mem.Storage,
	alloc *mem.PageAllocator,
) (*Space, error) {
	s, err := NewSpace(storage, alloc)
	if err != nil {
		return nil, err
	}

	for addr := uint64(0); addr < storage.Capacity(); addr += mem.PageSize {
		if addr == 0 {
			continue
		}

		perm := PermPresent | PermWrite
		if addr >= mem.UserStart || addr == mem.ConsoleAddr {
			perm |= PermUser
		}

		if err := s.Map(addr, addr, perm); err != nil {
			s.Destroy()
			return nil, fmt.Errorf("building kernel space: %w", err)
		}
	}

	return s, nil
}

// NewUserSpace creates a fresh address space carrying the kernel
// region: every present mapping of the kernel space below UserStart is
// installed with the same target frame and the same permissions. The
// shared kernel frames are not reference counted; they are never
// freed.
func NewUserSpace(
	storage *mem.Storage,
	alloc *mem.PageAllocator,
	kernel *Space,
) (*Space, error) {
	s, err := NewSpace(storage, alloc)
	if err != nil {
		return nil, err
	}

	it := kernel.Pages(0, mem.UserStart)
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		if err := s.Map(m.VA, m.PA(), m.Perm); err != nil {
			s.Destroy()
			return nil, fmt.Errorf("cloning kernel region: %w", err)
		}
	}

	return s, nil
}
