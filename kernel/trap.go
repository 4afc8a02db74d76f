package kernel

import (
	"fmt"
	"log"
)

// TrapKind classifies a trap.
type TrapKind int

// The trap kinds the dispatcher understands.
const (
	TrapTimer TrapKind = iota
	TrapPageFault
	TrapSyscall
)

func (t TrapKind) String() string {
	switch t {
	case TrapTimer:
		return "timer"
	case TrapPageFault:
		return "page fault"
	case TrapSyscall:
		return "syscall"
	}

	return "unknown"
}

// Page-fault error-code bits, matching the permission bits of the
// page-table entries.
const (
	// FaultProtection distinguishes a protection violation from a
	// missing page.
	FaultProtection = uint64(1) << 0

	// FaultWrite marks the faulting access as a write.
	FaultWrite = uint64(1) << 1

	// FaultUser marks the fault as taken in user mode. A fault with
	// this bit clear came from kernel mode and is fatal.
	FaultUser = uint64(1) << 2
)

// A TrapFrame is the raw snapshot the hardware hands the dispatcher:
// the interrupted registers plus the trap cause.
type TrapFrame struct {
	Kind      TrapKind
	Regs      Regs
	FaultAddr uint64
	ErrCode   uint64
}

// ActionKind tags the dispatcher's verdict.
type ActionKind int

// The action kinds.
const (
	// ActionResume transfers control to the process named by PID.
	ActionResume ActionKind = iota

	// ActionHalt stops the whole system permanently.
	ActionHalt
)

// An Action is the tagged result of trap handling. The original
// hardware kernel's resume and reschedule never return; here the
// decision travels up to the driver loop that performs the actual
// context transfer.
type Action struct {
	Kind   ActionKind
	PID    Pid
	Reason string
}

func resumeAction(pid Pid) Action {
	return Action{Kind: ActionResume, PID: pid}
}

// HaltAction builds a system-halt verdict.
func HaltAction(format string, args ...any) Action {
	return Action{Kind: ActionHalt, Reason: fmt.Sprintf(format, args...)}
}

// Trap is the single entry point for timer interrupts, page faults,
// and system calls. The first action is always to copy the snapshot
// into the current PCB, so a syscall's return value can later be
// written back into the same slot.
func (k *Kernel) Trap(tf TrapFrame) Action {
	cur := k.currentProc()
	cur.Regs = tf.Regs

	k.invokeHook(HookPosTrap, tf)

	// The memory view is not refreshed for kernel-mode page faults;
	// the state it would show is already suspect.
	if tf.Kind != TrapPageFault || tf.ErrCode&FaultUser != 0 {
		k.diag.Refresh(k)
	}

	if k.keyboard.AbortRequested() {
		return HaltAction("keyboard abort")
	}

	switch tf.Kind {
	case TrapTimer:
		k.intCtrl.AckTimer()
		k.ticks++
		return k.Schedule()

	case TrapPageFault:
		return k.pageFault(tf)

	case TrapSyscall:
		return k.syscall(tf)
	}

	return HaltAction("unhandled trap kind %d (pid=%d, ip=%#x)",
		tf.Kind, cur.PID, cur.Regs.IP)
}

func (k *Kernel) pageFault(tf TrapFrame) Action {
	cur := k.currentProc()

	operation := "read"
	if tf.ErrCode&FaultWrite != 0 {
		operation = "write"
	}

	problem := "missing page"
	if tf.ErrCode&FaultProtection != 0 {
		problem = "protection"
	}

	if tf.ErrCode&FaultUser == 0 {
		return HaltAction(
			"kernel page fault on %#x (%s %s, ip=%#x)",
			tf.FaultAddr, operation, problem, cur.Regs.IP)
	}

	log.Printf("page fault on %#x (pid %d, %s %s, ip=%#x)",
		tf.FaultAddr, cur.PID, operation, problem, cur.Regs.IP)

	cur.State = StateFaulted

	return k.Schedule()
}
