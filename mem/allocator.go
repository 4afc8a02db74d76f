package mem

// pageInfo is the descriptor of one physical frame.
type pageInfo struct {
	refcount uint32
}

// A PageAllocator hands out single physical pages and reclaims them by
// reference counting. Sharing a frame read-only between address spaces
// is expressed by retaining it once per additional sharer; the frame
// returns to the free stack exactly when the last sharer releases it.
//
// Only frames at or above UserStart are allocatable. Kernel frames and
// the console frame are pinned: they never enter the free stack and
// are never reference counted.
//
// The free set is an index-based stack rather than a list threaded
// through the freed pages themselves, so page content is never aliased
// as allocator metadata.
type PageAllocator struct {
	storage   *Storage
	pages     []pageInfo
	freeStack []Frame
}

// NewPageAllocator creates an allocator managing the frames of the
// given storage.
func NewPageAllocator(storage *Storage) *PageAllocator {
	nFrames := storage.Capacity() / PageSize
	a := &PageAllocator{
		storage: storage,
		pages:   make([]pageInfo, nFrames),
	}

	for addr := uint64(UserStart); addr < storage.Capacity(); addr += PageSize {
		if addr == ConsoleAddr {
			continue
		}

		a.freeStack = append(a.freeStack, FrameOf(addr))
	}

	return a
}

// Allocate hands out one zeroed page with a reference count of one.
// It fails when the free stack is empty or when more than one page is
// requested; this allocator only ever deals in single pages.
func (a *PageAllocator) Allocate(size uint64) (Frame, bool) {
	if size > PageSize {
		return NoFrame, false
	}

	if len(a.freeStack) == 0 {
		return NoFrame, false
	}

	f := a.freeStack[len(a.freeStack)-1]
	a.freeStack = a.freeStack[:len(a.freeStack)-1]

	a.storage.ZeroFrame(f)
	a.pages[f].refcount = 1

	return f, true
}

// Free releases one reference to the frame. Freeing NoFrame is a
// no-op. When the count reaches zero the frame is zeroed and pushed
// back onto the free stack. A free of an unreferenced or out-of-range
// frame is an invariant break and panics.
func (a *PageAllocator) Free(f Frame) {
	if f == NoFrame {
		return
	}

	if uint64(f) >= uint64(len(a.pages)) {
		panicf("freeing frame %d outside physical memory", f)
	}

	if a.pages[f].refcount == 0 {
		panicf("refcount underflow on frame %d (double free?)", f)
	}

	a.pages[f].refcount--
	if a.pages[f].refcount == 0 {
		a.storage.ZeroFrame(f)
		a.freeStack = append(a.freeStack, f)
	}
}

// FreeAddr releases one reference to the frame at the given physical
// address, which must be page-aligned.
func (a *PageAllocator) FreeAddr(addr uint64) {
	a.Free(MustFrame(addr))
}

// Retain adds one reference to an already-allocated frame. A retain of
// an unreferenced frame panics: sharing can only start from an
// allocated page.
func (a *PageAllocator) Retain(f Frame) {
	if uint64(f) >= uint64(len(a.pages)) {
		panicf("retaining frame %d outside physical memory", f)
	}

	if a.pages[f].refcount == 0 {
		panicf("retaining unreferenced frame %d", f)
	}

	a.pages[f].refcount++
}

// Refcount returns the current reference count of the frame.
func (a *PageAllocator) Refcount(f Frame) uint32 {
	return a.pages[f].refcount
}

// FreeCount returns the number of frames currently on the free stack.
func (a *PageAllocator) FreeCount() int {
	return len(a.freeStack)
}

// NumFrames returns the number of frames the allocator manages,
// including the pinned ones.
func (a *PageAllocator) NumFrames() int {
	return len(a.pages)
}
