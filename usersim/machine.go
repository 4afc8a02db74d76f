// Package usersim models user-mode execution between traps. A program
// is a routine keyed by its entry address; all of its state lives in
// the process's registers and user memory, so the kernel's fork and
// copy semantics are directly observable. Memory access goes through
// the process's page table: a bad access produces a page-fault trap
// frame instead of completing.
package usersim

import (
	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/mem"
)

// A Machine is the execution context a program sees during one step:
// the process's registers and its virtual memory.
type Machine struct {
	kern *kernel.Kernel
	proc *kernel.Proc
	regs kernel.Regs
}

// Regs exposes the working register file. Changes become visible to
// the kernel through the trap frame the program returns.
func (m *Machine) Regs() *kernel.Regs {
	return &m.regs
}

// Pid returns the executing process's pid.
func (m *Machine) Pid() kernel.Pid {
	return m.proc.PID
}

// Syscall builds the trap frame for a system call with the given
// number and first argument.
func (m *Machine) Syscall(num, arg uint64) kernel.TrapFrame {
	m.regs.AX = num
	m.regs.DI = arg

	return kernel.TrapFrame{Kind: kernel.TrapSyscall, Regs: m.regs}
}

// translate resolves va for a user-mode access, or produces the fault
// frame the hardware would raise.
func (m *Machine) translate(va uint64, write bool) (uint64, *kernel.TrapFrame) {
	errCode := uint64(kernel.FaultUser)
	if write {
		errCode |= kernel.FaultWrite
	}

	mapping, ok := m.proc.Space.Lookup(va)
	if !ok {
		return 0, m.fault(va, errCode)
	}

	if !mapping.User() || (write && !mapping.Writable()) {
		return 0, m.fault(va, errCode|kernel.FaultProtection)
	}

	return mapping.PA() + va%mem.PageSize, nil
}

func (m *Machine) fault(va, errCode uint64) *kernel.TrapFrame {
	return &kernel.TrapFrame{
		Kind:      kernel.TrapPageFault,
		Regs:      m.regs,
		FaultAddr: va,
		ErrCode:   errCode,
	}
}

// Load reads one 64-bit word from user memory. On a translation
// failure it returns the fault frame instead.
func (m *Machine) Load(va uint64) (uint64, *kernel.TrapFrame) {
	pa, f := m.translate(va, false)
	if f != nil {
		return 0, f
	}

	v, err := m.kern.Storage().ReadWord(pa)
	if err != nil {
		return 0, m.fault(va, kernel.FaultUser)
	}

	return v, nil
}

// Store writes one 64-bit word to user memory. On a translation
// failure it returns the fault frame instead.
func (m *Machine) Store(va, v uint64) *kernel.TrapFrame {
	pa, f := m.translate(va, true)
	if f != nil {
		return f
	}

	if err := m.kern.Storage().WriteWord(pa, v); err != nil {
		return m.fault(va, kernel.FaultUser|kernel.FaultWrite)
	}

	return nil
}
