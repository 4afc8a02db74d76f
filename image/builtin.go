package image

import (
	"github.com/sarchlab/minos/mem"
)

// Virtual layout of the built-in teaching programs. Each program lives
// in its own 0x40000 slot above UserStart, mirroring the classic
// teaching-kernel arrangement.
const (
	// AllocatorEntry is the entry point of the allocator program.
	AllocatorEntry = mem.UserStart

	// AllocatorData is the writable data segment of the allocator.
	AllocatorData = AllocatorEntry + 0x1000

	// AllocatorHeap is the first address the allocator program
	// requests through page_alloc.
	AllocatorHeap = AllocatorEntry + 0x2000

	// ForkTestEntry is the entry point of the forktest program.
	ForkTestEntry = mem.UserStart + 0x40000

	// ForkTestData is the writable data segment of forktest.
	ForkTestData = ForkTestEntry + 0x1000

	// ForkTestHeap is the first heap address of forktest.
	ForkTestHeap = ForkTestEntry + 0x2000
)

// DefaultImage is the program loaded when the boot command does not
// name one.
const DefaultImage = "allocator"

// FallbackImages are loaded into consecutive pids when the boot
// command names no known image.
var FallbackImages = []string{
	"allocator", "allocator2", "allocator3", "allocator4",
}

// syntheticCode produces deterministic filler bytes standing in for
// program text. The content only matters to tests that compare page
// bytes across fork.
func syntheticCode(seed byte, n int) []byte {
	code := make([]byte, n)
	for i := range code {
		code[i] = seed ^ byte(i*7)
	}

	return code
}

func teachingImage(name string, seed byte, entry, data uint64) Image {
	code := syntheticCode(seed, 256)
	initialized := []byte(name)

	return Image{
		Name:  name,
		Entry: entry,
		Segments: []Segment{
			{
				VA:       entry,
				Size:     mem.PageSize,
				DataSize: uint64(len(code)),
				Data:     code,
				Writable: false,
			},
			{
				VA:       data,
				Size:     mem.PageSize,
				DataSize: uint64(len(initialized)),
				Data:     initialized,
				Writable: true,
			},
		},
	}
}

// Builtin returns a library holding the built-in teaching programs:
// four instances of the allocator demo plus forktest.
func Builtin() *Library {
	l := NewLibrary()

	for i, name := range FallbackImages {
		l.Register(teachingImage(
			name, 0x90+byte(i), AllocatorEntry, AllocatorData))
	}

	l.Register(teachingImage(
		"forktest", 0x70, ForkTestEntry, ForkTestData))

	return l
}
