package kernel

import (
	"fmt"
	"log"

	"github.com/sarchlab/minos/image"
	"github.com/sarchlab/minos/mem"
	"github.com/sarchlab/minos/mem/vm"
)

// Boot loads the initial processes and dispatches the first one. The
// command selects the program image to load at pid 1; when it names no
// known image, the fixed fallback set is loaded into consecutive pids.
// A load failure at boot is not recoverable and panics.
func (k *Kernel) Boot(command string) Action {
	k.ticks = 1

	name := command
	if name == "" {
		name = image.DefaultImage
	}

	if _, ok := k.library.Lookup(name); ok {
		k.mustSetup(1, name)
	} else {
		for i, fallback := range image.FallbackImages {
			k.mustSetup(Pid(i+1), fallback)
		}
	}

	return k.Schedule()
}

func (k *Kernel) mustSetup(pid Pid, name string) {
	if err := k.processSetup(pid, name); err != nil {
		panic(fmt.Sprintf("boot: loading %q into pid %d: %v", name, pid, err))
	}
}

// processSetup loads the named program image into the process table
// slot pid: a fresh address space sharing the kernel region, one
// private zeroed page per segment page with the segment's initialized
// bytes copied in, and one stack page at the top of the user range.
// On failure the half-built space is torn down and no frame leaks.
func (k *Kernel) processSetup(pid Pid, name string) error {
	img, ok := k.library.Lookup(name)
	if !ok {
		return fmt.Errorf("no program image named %q", name)
	}

	space, err := vm.NewUserSpace(k.storage, k.alloc, k.kernelSpace)
	if err != nil {
		return err
	}

	for _, seg := range img.Segments {
		if err := k.loadSegment(space, seg); err != nil {
			space.Destroy()
			return err
		}
	}

	if err := k.mapStack(space); err != nil {
		space.Destroy()
		return err
	}

	p := &k.ptable[pid]
	p.PID = pid
	p.Space = space
	p.Regs = Regs{IP: img.Entry, SP: mem.VirtualCeiling}
	p.State = StateRunnable

	log.Printf("loaded %q as pid %d (entry %#x)", name, pid, img.Entry)
	k.invokeHook(HookPosProcessStart, pid)

	return nil
}

func (k *Kernel) loadSegment(space *vm.Space, seg image.Segment) error {
	perm := vm.PermPresent | vm.PermUser
	if seg.Writable {
		perm |= vm.PermWrite
	}

	for va := mem.PageFloor(seg.VA); va < seg.VA+seg.Size; va += mem.PageSize {
		f, ok := k.alloc.Allocate(mem.PageSize)
		if !ok {
			return fmt.Errorf("out of physical memory loading segment %#x", seg.VA)
		}

		if err := space.Map(va, f.Addr(), perm); err != nil {
			k.alloc.Free(f)
			return err
		}

		// Copy the initialized bytes that land in this page. The tail
		// of the final page stays zero (BSS).
		lo := max(va, seg.VA)
		hi := min(va+mem.PageSize, seg.VA+seg.DataSize)
		if lo < hi {
			err := k.storage.Write(
				f.Addr()+(lo-va), seg.Data[lo-seg.VA:hi-seg.VA])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (k *Kernel) mapStack(space *vm.Space) error {
	f, ok := k.alloc.Allocate(mem.PageSize)
	if !ok {
		return fmt.Errorf("out of physical memory for stack page")
	}

	stackVA := uint64(mem.VirtualCeiling - mem.PageSize)
	perm := vm.PermPresent | vm.PermWrite | vm.PermUser

	if err := space.Map(stackVA, f.Addr(), perm); err != nil {
		k.alloc.Free(f)
		return err
	}

	return nil
}
