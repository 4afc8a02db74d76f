package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarchlab/minos/kernel"
)

// fakeRecorder captures inserts in memory.
type fakeRecorder struct {
	tables  []string
	inserts map[string][]any
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{inserts: make(map[string][]any)}
}

func (r *fakeRecorder) CreateTable(name string, _ any) {
	r.tables = append(r.tables, name)
}

func (r *fakeRecorder) InsertData(name string, entry any) {
	r.inserts[name] = append(r.inserts[name], entry)
}

func (r *fakeRecorder) ListTables() []string { return r.tables }
func (r *fakeRecorder) Flush()               {}
func (r *fakeRecorder) Close()               {}

func TestTracerPreparesTables(t *testing.T) {
	rec := newFakeRecorder()

	NewDBTracer(rec)

	assert.ElementsMatch(t,
		[]string{"traps", "dispatches", "lifecycle"}, rec.tables)
}

func TestTracerRecordsKernelEvents(t *testing.T) {
	rec := newFakeRecorder()

	k := kernel.MakeBuilder().Build()
	k.AcceptHook(NewDBTracer(rec))

	require.Equal(t, kernel.ActionResume, k.Boot("no-such-program").Kind)

	// Boot: four process starts, one dispatch.
	assert.Len(t, rec.inserts["lifecycle"], 4)
	assert.Len(t, rec.inserts["dispatches"], 1)

	start := rec.inserts["lifecycle"][0].(LifecycleRow)
	assert.Equal(t, LifecycleRow{Tick: 1, PID: 1, Event: "start"}, start)

	// One yield: a trap row plus a dispatch row.
	regs := k.Proc(1).Regs
	regs.AX = kernel.SysYield
	k.Trap(kernel.TrapFrame{Kind: kernel.TrapSyscall, Regs: regs})

	require.Len(t, rec.inserts["traps"], 1)
	trap := rec.inserts["traps"][0].(TrapRow)
	assert.Equal(t, "syscall", trap.Kind)
	assert.Equal(t, 1, trap.PID)
	assert.Equal(t, kernel.SysYield, trap.AX)

	require.Len(t, rec.inserts["dispatches"], 2)
	disp := rec.inserts["dispatches"][1].(SchedRow)
	assert.Equal(t, 2, disp.PID)

	// An exit shows up in the lifecycle table.
	regs = k.Proc(2).Regs
	regs.AX = kernel.SysExit
	k.Trap(kernel.TrapFrame{Kind: kernel.TrapSyscall, Regs: regs})

	last := rec.inserts["lifecycle"][len(rec.inserts["lifecycle"])-1].(LifecycleRow)
	assert.Equal(t, LifecycleRow{Tick: 1, PID: 2, Event: "exit"}, last)
}
