// Package kernel implements the core of the teaching kernel: the
// process table, the cooperative round-robin scheduler, and the trap
// and syscall dispatcher, tied to the physical page allocator and the
// address-space manager.
//
// All mutable kernel state lives in one Kernel aggregate. The model is
// strictly single-context: exactly one process is current, every trap
// handler runs to completion before the next, and no lock protects the
// process table or the allocator.
package kernel

import (
	"github.com/sarchlab/minos/image"
	"github.com/sarchlab/minos/mem"
	"github.com/sarchlab/minos/mem/vm"
)

// HZ is the timer interrupt frequency the tick counter is calibrated
// to.
const HZ = 100

// A Kernel holds the complete state of the simulated kernel.
type Kernel struct {
	storage     *mem.Storage
	alloc       *mem.PageAllocator
	kernelSpace *vm.Space

	ptable    [PIDMax]Proc
	current   Pid
	lastSched Pid
	ticks     uint64

	diag     Diagnostics
	keyboard Keyboard
	intCtrl  InterruptController
	library  ImageLibrary

	hooks []Hook
}

// Builder builds a Kernel.
type Builder struct {
	diag     Diagnostics
	keyboard Keyboard
	intCtrl  InterruptController
	library  ImageLibrary
}

// MakeBuilder returns a Builder with no-op collaborators and the
// built-in image library.
func MakeBuilder() Builder {
	return Builder{
		diag:     nopDiagnostics{},
		keyboard: nopKeyboard{},
		intCtrl:  nopInterruptController{},
		library:  image.Builtin(),
	}
}

// WithDiagnostics sets the diagnostics collaborator.
func (b Builder) WithDiagnostics(d Diagnostics) Builder {
	b.diag = d
	return b
}

// WithKeyboard sets the keyboard collaborator.
func (b Builder) WithKeyboard(kb Keyboard) Builder {
	b.keyboard = kb
	return b
}

// WithInterruptController sets the interrupt controller collaborator.
func (b Builder) WithInterruptController(ic InterruptController) Builder {
	b.intCtrl = ic
	return b
}

// WithLibrary sets the program image library.
func (b Builder) WithLibrary(l ImageLibrary) Builder {
	b.library = l
	return b
}

// Build initializes the physical memory, the allocator, the kernel
// address space, and an all-free process table. Failing to build the
// kernel's own mappings is not recoverable and panics.
func (b Builder) Build() *Kernel {
	storage := mem.NewStorage(mem.PhysicalSize)
	alloc := mem.NewPageAllocator(storage)

	kernelSpace, err := vm.NewKernelSpace(storage, alloc)
	if err != nil {
		panic(err)
	}

	k := &Kernel{
		storage:     storage,
		alloc:       alloc,
		kernelSpace: kernelSpace,
		diag:        b.diag,
		keyboard:    b.keyboard,
		intCtrl:     b.intCtrl,
		library:     b.library,
	}

	for i := range k.ptable {
		k.ptable[i] = Proc{PID: Pid(i), State: StateFree}
	}

	return k
}

// Storage returns the simulated physical memory.
func (k *Kernel) Storage() *mem.Storage {
	return k.storage
}

// Allocator returns the physical page allocator.
func (k *Kernel) Allocator() *mem.PageAllocator {
	return k.alloc
}

// KernelSpace returns the kernel's own address space.
func (k *Kernel) KernelSpace() *vm.Space {
	return k.kernelSpace
}

// Proc returns the process table slot for pid.
func (k *Kernel) Proc(pid Pid) *Proc {
	return &k.ptable[pid]
}

// Current returns the pid of the currently running process.
func (k *Kernel) Current() Pid {
	return k.current
}

// Ticks returns the number of timer interrupts handled so far.
func (k *Kernel) Ticks() uint64 {
	return k.ticks
}

func (k *Kernel) currentProc() *Proc {
	return &k.ptable[k.current]
}

// ActiveSpace returns the address space of the current process.
func (k *Kernel) ActiveSpace() *vm.Space {
	return k.currentProc().Space
}
