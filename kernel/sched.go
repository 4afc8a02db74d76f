package kernel

import (
	"fmt"
	"log"

	"github.com/sarchlab/minos/mem"
)

// idleRefreshInterval is how many idle sweeps pass between diagnostic
// refreshes while nothing is runnable.
const idleRefreshInterval = HZ / 4

// Schedule picks the next process to run, in round-robin order
// starting just after the last dispatched pid. When a full cycle finds
// nothing runnable the scheduler spins, checking for a keyboard abort
// and periodically refreshing diagnostics. With a single process at a
// time and no external termination, that livelock is the intended
// behavior, not a defect.
func (k *Kernel) Schedule() Action {
	idleSweeps := 0

	for {
		for i := 0; i < PIDMax; i++ {
			k.lastSched = (k.lastSched + 1) % PIDMax

			p := &k.ptable[k.lastSched]
			if p.State == StateRunnable {
				return k.resume(p)
			}
		}

		if k.keyboard.AbortRequested() {
			return HaltAction("keyboard abort")
		}

		idleSweeps++
		if idleSweeps%idleRefreshInterval == 0 {
			k.diag.Refresh(k)
		}
	}
}

// resume validates the process and installs it as current. The caller
// receives the resume verdict; the actual transfer of control happens
// in the driver loop, and control re-enters the kernel only through
// Trap.
func (k *Kernel) resume(p *Proc) Action {
	k.checkProcess(p)

	k.current = p.PID
	k.invokeHook(HookPosSchedule, p.PID)

	return resumeAction(p.PID)
}

// checkProcess asserts that a process about to run is well-formed.
// A violation is a kernel bug, not a process error.
func (k *Kernel) checkProcess(p *Proc) {
	if p.State != StateRunnable {
		panic(fmt.Sprintf("resuming pid %d in state %v", p.PID, p.State))
	}

	if p.Space == nil || p.Space.Root() == mem.NoFrame {
		panic(fmt.Sprintf("resuming pid %d without an address space", p.PID))
	}

	if p.Regs.IP < mem.UserStart || p.Regs.IP >= mem.VirtualCeiling {
		panic(fmt.Sprintf(
			"resuming pid %d with ip %#x outside the user region",
			p.PID, p.Regs.IP))
	}

	if p.Regs.SP > mem.VirtualCeiling {
		panic(fmt.Sprintf(
			"resuming pid %d with sp %#x above the virtual ceiling",
			p.PID, p.Regs.SP))
	}
}

// A CPU models user-mode execution between traps: given the current
// process, it runs until the next trap and returns its frame.
type CPU interface {
	Step(k *Kernel, p *Proc) TrapFrame
}

// Run is the driver loop: it boots with the given command and then
// alternates between transferring control to the dispatched process
// and handing the resulting trap back to the dispatcher, until the
// system halts. It returns the halting action.
func (k *Kernel) Run(cpu CPU, command string) Action {
	act := k.Boot(command)

	for act.Kind == ActionResume {
		tf := cpu.Step(k, &k.ptable[act.PID])
		act = k.Trap(tf)
	}

	log.Printf("system halted: %s", act.Reason)

	return act
}
