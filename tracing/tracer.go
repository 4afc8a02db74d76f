// Package tracing records kernel events into a data recorder, so that
// a run leaves an inspectable trail of traps, dispatches, and process
// lifecycle changes.
package tracing

import (
	"github.com/sarchlab/minos/datarecording"
	"github.com/sarchlab/minos/kernel"
)

// A TrapRow is one dispatched trap.
type TrapRow struct {
	Tick      uint64
	PID       int
	Kind      string
	AX        uint64
	IP        uint64
	FaultAddr uint64
	ErrCode   uint64
}

// A SchedRow is one scheduler dispatch.
type SchedRow struct {
	Tick uint64
	PID  int
}

// A LifecycleRow is one process start or exit.
type LifecycleRow struct {
	Tick  uint64
	PID   int
	Event string
}

// A DBTracer hooks into the kernel and writes every trap, dispatch,
// and lifecycle event to the recorder.
type DBTracer struct {
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a tracer writing to the recorder and prepares
// its tables.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{recorder: recorder}

	recorder.CreateTable("traps", TrapRow{})
	recorder.CreateTable("dispatches", SchedRow{})
	recorder.CreateTable("lifecycle", LifecycleRow{})

	return t
}

// Func implements kernel.Hook.
func (t *DBTracer) Func(ctx kernel.HookCtx) {
	switch ctx.Pos {
	case kernel.HookPosTrap:
		tf := ctx.Item.(kernel.TrapFrame)
		t.recorder.InsertData("traps", TrapRow{
			Tick:      ctx.Kernel.Ticks(),
			PID:       int(ctx.Kernel.Current()),
			Kind:      tf.Kind.String(),
			AX:        tf.Regs.AX,
			IP:        tf.Regs.IP,
			FaultAddr: tf.FaultAddr,
			ErrCode:   tf.ErrCode,
		})

	case kernel.HookPosSchedule:
		t.recorder.InsertData("dispatches", SchedRow{
			Tick: ctx.Kernel.Ticks(),
			PID:  int(ctx.Item.(kernel.Pid)),
		})

	case kernel.HookPosProcessStart:
		t.lifecycle(ctx, "start")

	case kernel.HookPosProcessExit:
		t.lifecycle(ctx, "exit")
	}
}

func (t *DBTracer) lifecycle(ctx kernel.HookCtx, event string) {
	t.recorder.InsertData("lifecycle", LifecycleRow{
		Tick:  ctx.Kernel.Ticks(),
		PID:   int(ctx.Item.(kernel.Pid)),
		Event: event,
	})
}
