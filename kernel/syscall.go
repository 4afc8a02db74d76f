package kernel

import (
	"log"

	"github.com/sarchlab/minos/mem"
	"github.com/sarchlab/minos/mem/vm"
)

// System call numbers, carried in AX.
const (
	SysGetpid    = uint64(1)
	SysYield     = uint64(2)
	SysPanic     = uint64(3)
	SysPageAlloc = uint64(4)
	SysFork      = uint64(5)
	SysExit      = uint64(6)
)

// SysErr is the negative sentinel syscalls return on failure.
const SysErr = ^uint64(0)

func (k *Kernel) syscall(tf TrapFrame) Action {
	cur := k.currentProc()

	switch tf.Regs.AX {
	case SysPanic:
		return HaltAction("process %d panicked (ip=%#x)", cur.PID, cur.Regs.IP)

	case SysGetpid:
		return k.sysReturn(uint64(cur.PID))

	case SysYield:
		cur.Regs.AX = 0
		return k.Schedule()

	case SysPageAlloc:
		return k.sysReturn(k.sysPageAlloc(tf.Regs.DI))

	case SysFork:
		return k.sysReturn(k.sysFork())

	case SysExit:
		k.sysExit()
		return k.Schedule()
	}

	return HaltAction("unhandled system call %d (pid=%d, ip=%#x)",
		tf.Regs.AX, cur.PID, cur.Regs.IP)
}

// sysReturn writes the return value into the saved AX and resumes the
// calling process.
func (k *Kernel) sysReturn(v uint64) Action {
	cur := k.currentProc()
	cur.Regs.AX = v

	return k.resume(cur)
}

// sysPageAlloc allocates one zeroed page and maps it user-writable at
// addr in the current address space. It rejects an address that is not
// page-aligned, below the user region, or at or above the virtual
// ceiling. Allocating at an already-mapped address replaces the
// mapping and releases the displaced frame.
func (k *Kernel) sysPageAlloc(addr uint64) uint64 {
	if !mem.Aligned(addr) || addr < mem.UserStart || addr >= mem.VirtualCeiling {
		return SysErr
	}

	cur := k.currentProc()

	displaced := mem.NoFrame
	if old, ok := cur.Space.Lookup(addr); ok && old.User() &&
		old.Frame != mem.ConsoleFrame {
		displaced = old.Frame
	}

	f, ok := k.alloc.Allocate(mem.PageSize)
	if !ok {
		return SysErr
	}

	perm := vm.PermPresent | vm.PermWrite | vm.PermUser
	if err := cur.Space.Map(addr, f.Addr(), perm); err != nil {
		k.alloc.Free(f)
		return SysErr
	}

	k.alloc.Free(displaced)

	return 0
}

// sysFork duplicates the current process into a free table slot. Every
// read-only user mapping is shared with the child by reference count;
// every writable mapping is copied into a fresh page. Any failure
// unwinds the child completely.
func (k *Kernel) sysFork() uint64 {
	parent := k.currentProc()

	childPid := Pid(0)
	for pid := Pid(1); pid < PIDMax; pid++ {
		if k.ptable[pid].State == StateFree {
			childPid = pid
			break
		}
	}

	if childPid == 0 {
		return SysErr
	}

	space, err := vm.NewUserSpace(k.storage, k.alloc, k.kernelSpace)
	if err != nil {
		return SysErr
	}

	it := parent.Space.Pages(mem.UserStart, mem.VirtualCeiling)
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		if !m.User() || m.Frame == mem.ConsoleFrame {
			continue
		}

		if !m.Writable() {
			if err := space.Map(m.VA, m.PA(), m.Perm); err != nil {
				space.Destroy()
				return SysErr
			}

			k.alloc.Retain(m.Frame)
			continue
		}

		f, allocated := k.alloc.Allocate(mem.PageSize)
		if !allocated {
			space.Destroy()
			return SysErr
		}

		if err := k.storage.CopyFrame(f, m.Frame); err != nil {
			k.alloc.Free(f)
			space.Destroy()
			return SysErr
		}

		if err := space.Map(m.VA, f.Addr(), m.Perm); err != nil {
			k.alloc.Free(f)
			space.Destroy()
			return SysErr
		}
	}

	child := &k.ptable[childPid]
	child.PID = childPid
	child.Space = space
	child.Regs = parent.Regs
	child.Regs.AX = 0
	child.State = StateRunnable

	log.Printf("pid %d forked pid %d", parent.PID, childPid)
	k.invokeHook(HookPosProcessStart, childPid)

	return uint64(childPid)
}

// sysExit tears down the current process: its address space is
// destroyed and the PCB returns to the free pool.
func (k *Kernel) sysExit() {
	cur := k.currentProc()

	cur.Space.Destroy()
	cur.Space = nil
	cur.State = StateFree
	cur.Regs = Regs{}

	log.Printf("pid %d exited", cur.PID)
	k.invokeHook(HookPosProcessExit, cur.PID)
}
