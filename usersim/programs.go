package usersim

import (
	"github.com/sarchlab/minos/image"
	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/mem"
)

// Program state lives in the BSS part of the writable data segment.
// The offsets leave the initialized bytes at the segment start
// untouched.
const (
	heapTopOff = 0x100
	forksOff   = 0x108
	pidOff     = 0x110
	allocsOff  = 0x118
)

// BX holds the program counter of the step state machines.
const (
	stStart = iota
	stAllocated
	stYielded
	stForked
	stGotPid
	stExited
)

const forkTestChildren = 2
const forkTestAllocs = 4

// stackGuard is the highest address the programs allocate at; the page
// above it is the stack.
const stackGuard = mem.VirtualCeiling - mem.PageSize

// allocatorProgram is the classic teaching demo: grab one heap page,
// verify it reads back zero, scribble on it, yield, repeat until the
// address space or the physical memory runs out.
func allocatorProgram(m *Machine) kernel.TrapFrame {
	r := m.Regs()

	switch r.BX {
	case stAllocated:
		if r.AX == 0 {
			if f := m.commitHeapPage(image.AllocatorData); f != nil {
				return *f
			}
		}

		r.BX = stYielded

		return m.Syscall(kernel.SysYield, 0)

	case stYielded, stStart:
		ht, f := m.heapTop(image.AllocatorData, image.AllocatorHeap)
		if f != nil {
			return *f
		}

		if ht >= stackGuard {
			r.BX = stYielded
			return m.Syscall(kernel.SysYield, 0)
		}

		r.BX = stAllocated

		return m.Syscall(kernel.SysPageAlloc, ht)
	}

	return m.Syscall(kernel.SysPanic, 0)
}

// forkTestProgram forks itself a couple of times, then every copy
// reports its pid, allocates a few heap pages, and exits.
func forkTestProgram(m *Machine) kernel.TrapFrame {
	r := m.Regs()

	switch r.BX {
	case stStart:
		forks, f := m.Load(image.ForkTestData + forksOff)
		if f != nil {
			return *f
		}

		if forks < forkTestChildren {
			r.BX = stForked
			return m.Syscall(kernel.SysFork, 0)
		}

		r.BX = stGotPid

		return m.Syscall(kernel.SysGetpid, 0)

	case stForked:
		if r.AX != 0 && r.AX != kernel.SysErr {
			// Parent: count the child and go fork again.
			forks, f := m.Load(image.ForkTestData + forksOff)
			if f != nil {
				return *f
			}

			if f := m.Store(image.ForkTestData+forksOff, forks+1); f != nil {
				return *f
			}

			r.BX = stStart

			return m.Syscall(kernel.SysYield, 0)
		}

		// Child (or failed fork): stop forking, move on.
		if f := m.Store(image.ForkTestData+forksOff, forkTestChildren); f != nil {
			return *f
		}

		r.BX = stGotPid

		return m.Syscall(kernel.SysGetpid, 0)

	case stGotPid:
		if f := m.Store(image.ForkTestData+pidOff, r.AX); f != nil {
			return *f
		}

		r.BX = stYielded

		return m.Syscall(kernel.SysYield, 0)

	case stYielded:
		allocs, f := m.Load(image.ForkTestData + allocsOff)
		if f != nil {
			return *f
		}

		if allocs >= forkTestAllocs {
			r.BX = stExited
			return m.Syscall(kernel.SysExit, 0)
		}

		ht, f := m.heapTop(image.ForkTestData, image.ForkTestHeap)
		if f != nil {
			return *f
		}

		if ht >= stackGuard {
			r.BX = stExited
			return m.Syscall(kernel.SysExit, 0)
		}

		r.BX = stAllocated

		return m.Syscall(kernel.SysPageAlloc, ht)

	case stAllocated:
		if r.AX == 0 {
			if f := m.commitHeapPage(image.ForkTestData); f != nil {
				return *f
			}

			allocs, f := m.Load(image.ForkTestData + allocsOff)
			if f != nil {
				return *f
			}

			if f := m.Store(image.ForkTestData+allocsOff, allocs+1); f != nil {
				return *f
			}
		}

		r.BX = stYielded

		return m.Syscall(kernel.SysYield, 0)

	case stExited:
		// Resumed after exit should be impossible; insist.
		return m.Syscall(kernel.SysExit, 0)
	}

	return m.Syscall(kernel.SysPanic, 0)
}

// heapTop reads the heap cursor from the data segment, initializing it
// on first use.
func (m *Machine) heapTop(dataVA, heapBase uint64) (uint64, *kernel.TrapFrame) {
	ht, f := m.Load(dataVA + heapTopOff)
	if f != nil {
		return 0, f
	}

	if ht == 0 {
		ht = heapBase
		if f := m.Store(dataVA+heapTopOff, ht); f != nil {
			return 0, f
		}
	}

	return ht, nil
}

// commitHeapPage checks that the page just handed out by page_alloc
// reads back zero, tags it with the owner's pid, and advances the heap
// cursor.
func (m *Machine) commitHeapPage(dataVA uint64) *kernel.TrapFrame {
	ht, f := m.Load(dataVA + heapTopOff)
	if f != nil {
		return f
	}

	v, f := m.Load(ht)
	if f != nil {
		return f
	}

	if v != 0 {
		// A fresh page must read as zero; anything else means the
		// kernel handed out a dirty frame.
		tf := m.Syscall(kernel.SysPanic, 0)
		return &tf
	}

	if f := m.Store(ht, uint64(m.Pid())); f != nil {
		return f
	}

	return m.Store(dataVA+heapTopOff, ht+mem.PageSize)
}
