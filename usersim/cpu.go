package usersim

import (
	"github.com/sarchlab/minos/image"
	"github.com/sarchlab/minos/kernel"
)

// A Program models the user-mode code of one process. It is invoked
// each time the process is resumed and must end in a trap: a system
// call, a page fault, or - when it runs past its quantum - the timer
// interrupt delivered by the CPU itself.
type Program func(m *Machine) kernel.TrapFrame

// A CPU executes the current process until its next trap. Programs are
// dispatched by the saved instruction pointer: after a fork, the child
// resumes in the same program as the parent, with the copied registers
// and memory deciding what it does next.
type CPU struct {
	programs map[uint64]Program
	quantum  int
	steps    int
}

// Builder builds a CPU.
type Builder struct {
	quantum int
}

// MakeBuilder returns a Builder with the default timer quantum.
func MakeBuilder() Builder {
	return Builder{quantum: 32}
}

// WithQuantum sets how many program steps pass between timer
// interrupts. A quantum of zero disables the timer.
func (b Builder) WithQuantum(quantum int) Builder {
	b.quantum = quantum
	return b
}

// Build creates the CPU with the built-in teaching programs
// registered.
func (b Builder) Build() *CPU {
	c := &CPU{
		programs: make(map[uint64]Program),
		quantum:  b.quantum,
	}

	c.Register(image.AllocatorEntry, allocatorProgram)
	c.Register(image.ForkTestEntry, forkTestProgram)

	return c
}

// Register installs a program at an entry address.
func (c *CPU) Register(entry uint64, p Program) {
	c.programs[entry] = p
}

// Step runs the process until its next trap.
func (c *CPU) Step(k *kernel.Kernel, p *kernel.Proc) kernel.TrapFrame {
	c.steps++
	if c.quantum > 0 && c.steps%c.quantum == 0 {
		return kernel.TrapFrame{Kind: kernel.TrapTimer, Regs: p.Regs}
	}

	prog, ok := c.programs[p.Regs.IP]
	if !ok {
		// Fetching from an address nothing is registered at: the
		// process faults on its own instruction pointer.
		return kernel.TrapFrame{
			Kind:      kernel.TrapPageFault,
			Regs:      p.Regs,
			FaultAddr: p.Regs.IP,
			ErrCode:   kernel.FaultUser,
		}
	}

	m := &Machine{kern: k, proc: p, regs: p.Regs}

	return prog(m)
}
