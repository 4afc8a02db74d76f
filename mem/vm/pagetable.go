// Package vm builds and tears down per-process address spaces on top
// of the physical page allocator.
//
// An address space is a four-level page table in the x86-64 style. The
// table nodes are ordinary physical frames obtained from the
// allocator, and the entries are 64-bit words stored in the frame
// bytes, so the table itself lives in the simulated physical memory it
// describes.
package vm

import (
	"github.com/sarchlab/minos/mem"
)

// Permission bits of a page-table entry. They occupy the low bits of
// the entry; the rest of the entry is the physical address of the
// target frame.
const (
	// PermPresent marks the entry as installed.
	PermPresent = uint64(1) << 0

	// PermWrite allows writes through the mapping.
	PermWrite = uint64(1) << 1

	// PermUser allows user-mode access through the mapping.
	PermUser = uint64(1) << 2
)

const (
	numLevels       = 4
	entriesPerTable = mem.PageSize / 8
	entryAddrMask   = ^uint64(mem.PageSize - 1)

	// Intermediate table entries carry the most permissive bits; the
	// leaf entry alone decides the effective permission.
	intermediatePerm = PermPresent | PermWrite | PermUser
)

// levelShift returns the bit position of the index for a table level.
// Level 0 is the root, level 3 holds the leaf entries.
func levelShift(level int) uint {
	return uint(12 + 9*(numLevels-1-level))
}

func levelIndex(va uint64, level int) uint64 {
	return (va >> levelShift(level)) & (entriesPerTable - 1)
}

// A Mapping describes one present page-granularity translation.
type Mapping struct {
	VA    uint64
	Frame mem.Frame
	Perm  uint64
}

// PA returns the physical address the mapping points at.
func (m Mapping) PA() uint64 {
	return m.Frame.Addr()
}

// Writable reports whether the mapping allows writes.
func (m Mapping) Writable() bool {
	return m.Perm&PermWrite != 0
}

// User reports whether the mapping allows user-mode access.
func (m Mapping) User() bool {
	return m.Perm&PermUser != 0
}
