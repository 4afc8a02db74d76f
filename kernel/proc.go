package kernel

import (
	"github.com/sarchlab/minos/mem/vm"
)

// PIDMax is the capacity of the process table. Slot 0 is permanently
// unused.
const PIDMax = 16

// A Pid identifies a process table slot.
type Pid int

// State is the lifecycle state of a process.
type State int

// The process states.
const (
	StateFree State = iota
	StateRunnable
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateRunnable:
		return "runnable"
	case StateFaulted:
		return "faulted"
	}

	return "unknown"
}

// Regs is the saved register snapshot of a process. AX carries the
// syscall number on entry and the return value on resumption; DI
// carries the first syscall argument.
type Regs struct {
	AX, BX, CX, DX uint64
	SI, DI         uint64
	IP, SP         uint64
	Flags          uint64
}

// A Proc is one process control block. It owns its address space
// exclusively until it returns to StateFree.
type Proc struct {
	PID   Pid
	State State
	Regs  Regs
	Space *vm.Space
}
