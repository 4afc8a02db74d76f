package kernel

// HookPos names a site in the kernel where hooks are invoked.
type HookPos struct {
	Name string
}

// HookPosTrap triggers on every trap, after the register snapshot has
// been saved into the current PCB. Item is the TrapFrame.
var HookPosTrap = &HookPos{Name: "Trap"}

// HookPosSchedule triggers when the scheduler dispatches a process.
// Item is the Pid being resumed.
var HookPosSchedule = &HookPos{Name: "Schedule"}

// HookPosProcessStart triggers when a process becomes runnable through
// load or fork. Item is the Pid.
var HookPosProcessStart = &HookPos{Name: "ProcessStart"}

// HookPosProcessExit triggers when a process exits. Item is the Pid.
var HookPosProcessExit = &HookPos{Name: "ProcessExit"}

// HookCtx carries the information available at the hooked site.
type HookCtx struct {
	Kernel *Kernel
	Pos    *HookPos
	Item   any
}

// A Hook is a short piece of program invoked by the kernel at defined
// positions. Hooks observe; they must not mutate kernel state.
type Hook interface {
	Func(ctx HookCtx)
}

// AcceptHook registers a hook.
func (k *Kernel) AcceptHook(hook Hook) {
	k.hooks = append(k.hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (k *Kernel) NumHooks() int {
	return len(k.hooks)
}

func (k *Kernel) invokeHook(pos *HookPos, item any) {
	for _, h := range k.hooks {
		h.Func(HookCtx{Kernel: k, Pos: pos, Item: item})
	}
}
