package mem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllocator() *PageAllocator {
	return NewPageAllocator(NewStorage(PhysicalSize))
}

func TestAllocatorOnlyUserFramesAreFree(t *testing.T) {
	a := newAllocator()

	// Frames below UserStart, the console among them, are pinned.
	want := (PhysicalSize - UserStart) / PageSize
	assert.Equal(t, want, a.FreeCount())
}

func TestAllocateHandsOutZeroedPage(t *testing.T) {
	storage := NewStorage(PhysicalSize)
	a := NewPageAllocator(storage)

	f, ok := a.Allocate(PageSize)
	require.True(t, ok)
	require.NotEqual(t, NoFrame, f)

	assert.Equal(t, uint32(1), a.Refcount(f))
	assert.GreaterOrEqual(t, f.Addr(), uint64(UserStart))

	b, err := storage.FrameBytes(f)
	require.NoError(t, err)
	for _, v := range b {
		require.Zero(t, v)
	}
}

func TestAllocateRejectsMultiPageRequests(t *testing.T) {
	a := newAllocator()

	_, ok := a.Allocate(PageSize + 1)
	assert.False(t, ok)

	_, ok = a.Allocate(1)
	assert.True(t, ok, "sub-page requests still get one page")
}

func TestAllocateUntilExhaustion(t *testing.T) {
	a := newAllocator()

	n := a.FreeCount()
	for i := 0; i < n; i++ {
		_, ok := a.Allocate(PageSize)
		require.True(t, ok)
	}

	_, ok := a.Allocate(PageSize)
	assert.False(t, ok)
	assert.Zero(t, a.FreeCount())
}

func TestFreeReturnsFrameToFreeSet(t *testing.T) {
	a := newAllocator()
	before := a.FreeCount()

	f, ok := a.Allocate(PageSize)
	require.True(t, ok)
	assert.Equal(t, before-1, a.FreeCount())

	a.Free(f)
	assert.Equal(t, before, a.FreeCount())
	assert.Zero(t, a.Refcount(f))
}

func TestFreeZeroesReclaimedFrame(t *testing.T) {
	storage := NewStorage(PhysicalSize)
	a := NewPageAllocator(storage)

	f, _ := a.Allocate(PageSize)
	require.NoError(t, storage.Write(f.Addr(), []byte("dirty")))

	a.Free(f)

	b, err := storage.FrameBytes(f)
	require.NoError(t, err)
	for _, v := range b {
		require.Zero(t, v)
	}
}

func TestFreeNoFrameIsNoOp(t *testing.T) {
	a := newAllocator()
	before := a.FreeCount()

	a.Free(NoFrame)
	assert.Equal(t, before, a.FreeCount())
}

func TestRetainSharesFrame(t *testing.T) {
	a := newAllocator()
	before := a.FreeCount()

	f, _ := a.Allocate(PageSize)
	a.Retain(f)
	assert.Equal(t, uint32(2), a.Refcount(f))

	// The frame stays allocated until the last sharer releases it.
	a.Free(f)
	assert.Equal(t, uint32(1), a.Refcount(f))
	assert.Equal(t, before-1, a.FreeCount())

	a.Free(f)
	assert.Equal(t, before, a.FreeCount())
}

func TestDoubleFreePanics(t *testing.T) {
	a := newAllocator()

	f, _ := a.Allocate(PageSize)
	a.Free(f)

	assert.Panics(t, func() { a.Free(f) })
}

func TestFreeUnallocatedFramePanics(t *testing.T) {
	a := newAllocator()

	assert.Panics(t, func() { a.Free(ConsoleFrame) })
	assert.Panics(t, func() { a.Free(Frame(NumFrames)) })
}

func TestFreeAddrRejectsMisalignment(t *testing.T) {
	a := newAllocator()

	f, _ := a.Allocate(PageSize)
	assert.Panics(t, func() { a.FreeAddr(f.Addr() + 1) })

	a.FreeAddr(f.Addr())
	assert.Zero(t, a.Refcount(f))
}

func TestRetainUnreferencedFramePanics(t *testing.T) {
	a := newAllocator()

	f, _ := a.Allocate(PageSize)
	a.Free(f)

	assert.Panics(t, func() { a.Retain(f) })
}

// The free set and the reference counts must stay mutually exclusive
// under any interleaving of allocate and free.
func TestAllocateFreeInterleaving(t *testing.T) {
	a := newAllocator()
	rng := rand.New(rand.NewSource(42))

	held := make(map[Frame]uint32)

	for step := 0; step < 10000; step++ {
		if rng.Intn(2) == 0 {
			f, ok := a.Allocate(PageSize)
			if ok {
				held[f] = 1
			}
		} else if len(held) > 0 {
			var f Frame
			for f = range held {
				break
			}

			a.Free(f)

			held[f]--
			if held[f] == 0 {
				delete(held, f)
			}
		}
	}

	total := (PhysicalSize - UserStart) / PageSize
	assert.Equal(t, total-len(held), a.FreeCount())

	for f, n := range held {
		assert.Equal(t, n, a.Refcount(f))
	}
}
