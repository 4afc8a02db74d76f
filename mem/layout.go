// Package mem provides the simulated physical memory of the kernel: a
// byte-addressable storage and a reference-counting page allocator.
package mem

// Physical and virtual memory layout. The numbers follow the classic
// teaching-kernel arrangement: 2 MB of physical memory, user processes
// starting at 1 MB, and a 3 MB virtual ceiling.
const (
	// PageSize is the size of one page/frame in bytes.
	PageSize = 0x1000

	// PhysicalSize is the total amount of simulated physical memory.
	PhysicalSize = 0x200000

	// NumFrames is the number of physical frames.
	NumFrames = PhysicalSize / PageSize

	// KernelStart is the lowest kernel virtual address.
	KernelStart = 0x0

	// UserStart is the lowest virtual address usable by user processes.
	// Everything below it is the kernel region, mapped identically into
	// every address space.
	UserStart = 0x100000

	// VirtualCeiling is the lowest virtual address that is never mapped.
	VirtualCeiling = 0x300000

	// ConsoleAddr is the physical and virtual address of the console
	// frame. The frame is pinned and shared by all processes.
	ConsoleAddr = 0xB8000
)

// A Frame identifies one physical page by index.
type Frame uint64

// NoFrame is the absent-frame sentinel.
const NoFrame = ^Frame(0)

// ConsoleFrame is the frame holding the console buffer.
const ConsoleFrame = Frame(ConsoleAddr / PageSize)

// Addr returns the physical address of the first byte of the frame.
func (f Frame) Addr() uint64 {
	return uint64(f) * PageSize
}

// FrameOf returns the frame containing the physical address.
func FrameOf(addr uint64) Frame {
	return Frame(addr / PageSize)
}

// MustFrame converts a page-aligned physical address to a frame. It
// panics on a misaligned address, as handing a non-page-aligned address
// to frame-level bookkeeping is always a kernel bug.
func MustFrame(addr uint64) Frame {
	if addr%PageSize != 0 {
		panicf("physical address %#x is not page-aligned", addr)
	}

	return FrameOf(addr)
}

// PageFloor rounds an address down to a page boundary.
func PageFloor(addr uint64) uint64 {
	return addr &^ (PageSize - 1)
}

// PageCeil rounds an address up to a page boundary.
func PageCeil(addr uint64) uint64 {
	return PageFloor(addr + PageSize - 1)
}

// Aligned reports whether the address is on a page boundary.
func Aligned(addr uint64) bool {
	return addr%PageSize == 0
}
