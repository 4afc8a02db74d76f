package kernel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type recordingHook struct {
	positions []*HookPos
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
}

var _ = Describe("Dispatcher", func() {
	var (
		ctrl     *gomock.Controller
		diag     *MockDiagnostics
		keyboard *MockKeyboard
		intCtrl  *MockInterruptController
		k        *Kernel
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		diag = NewMockDiagnostics(ctrl)
		keyboard = NewMockKeyboard(ctrl)
		intCtrl = NewMockInterruptController(ctrl)

		k = MakeBuilder().
			WithDiagnostics(diag).
			WithKeyboard(keyboard).
			WithInterruptController(intCtrl).
			Build()
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	timerFrame := func() TrapFrame {
		return TrapFrame{Kind: TrapTimer, Regs: k.Proc(k.Current()).Regs}
	}

	Context("with a single runnable process", func() {
		BeforeEach(func() {
			act := k.Boot("allocator")
			Expect(act.Kind).To(Equal(ActionResume))
			Expect(act.PID).To(Equal(Pid(1)))
		})

		It("should handle a timer interrupt", func() {
			diag.EXPECT().Refresh(k)
			keyboard.EXPECT().AbortRequested().Return(false)
			intCtrl.EXPECT().AckTimer()

			act := k.Trap(timerFrame())

			Expect(act.Kind).To(Equal(ActionResume))
			Expect(act.PID).To(Equal(Pid(1)))
			Expect(k.Ticks()).To(Equal(uint64(2)))
		})

		It("should halt on a keyboard abort", func() {
			diag.EXPECT().Refresh(k)
			keyboard.EXPECT().AbortRequested().Return(true)

			act := k.Trap(timerFrame())

			Expect(act.Kind).To(Equal(ActionHalt))
			Expect(act.Reason).To(ContainSubstring("keyboard abort"))
		})

		It("should halt on a kernel-mode page fault without refreshing", func() {
			keyboard.EXPECT().AbortRequested().Return(false)

			tf := TrapFrame{
				Kind:      TrapPageFault,
				Regs:      k.Proc(1).Regs,
				FaultAddr: 0xdead000,
				ErrCode:   FaultWrite,
			}

			act := k.Trap(tf)

			Expect(act.Kind).To(Equal(ActionHalt))
			Expect(act.Reason).To(ContainSubstring("kernel page fault"))
		})

		It("should save the trap registers into the current PCB", func() {
			diag.EXPECT().Refresh(k)
			keyboard.EXPECT().AbortRequested().Return(false)
			intCtrl.EXPECT().AckTimer()

			tf := timerFrame()
			tf.Regs.CX = 0x1234

			k.Trap(tf)

			Expect(k.Proc(1).Regs.CX).To(Equal(uint64(0x1234)))
		})

		It("should invoke hooks on trap and dispatch", func() {
			diag.EXPECT().Refresh(k)
			keyboard.EXPECT().AbortRequested().Return(false)
			intCtrl.EXPECT().AckTimer()

			hook := &recordingHook{}
			k.AcceptHook(hook)
			Expect(k.NumHooks()).To(Equal(1))

			k.Trap(timerFrame())

			Expect(hook.positions).To(Equal([]*HookPos{
				HookPosTrap, HookPosSchedule,
			}))
		})
	})

	Context("with the fallback process set", func() {
		BeforeEach(func() {
			act := k.Boot("no-such-program")
			Expect(act.PID).To(Equal(Pid(1)))
		})

		It("should suspend a faulting process and dispatch the next", func() {
			diag.EXPECT().Refresh(k)
			keyboard.EXPECT().AbortRequested().Return(false)

			tf := TrapFrame{
				Kind:      TrapPageFault,
				Regs:      k.Proc(1).Regs,
				FaultAddr: 0x2345678,
				ErrCode:   FaultUser | FaultWrite,
			}

			act := k.Trap(tf)

			Expect(act.Kind).To(Equal(ActionResume))
			Expect(act.PID).To(Equal(Pid(2)))
			Expect(k.Proc(1).State).To(Equal(StateFaulted))
		})

		It("should idle until the keyboard aborts when nothing is runnable", func() {
			diag.EXPECT().Refresh(k)
			gomock.InOrder(
				keyboard.EXPECT().AbortRequested().Return(false),
				keyboard.EXPECT().AbortRequested().Return(false),
				keyboard.EXPECT().AbortRequested().Return(true),
			)

			for pid := Pid(2); pid <= 4; pid++ {
				k.Proc(pid).State = StateFaulted
			}

			tf := TrapFrame{
				Kind:      TrapPageFault,
				Regs:      k.Proc(1).Regs,
				FaultAddr: 0x2345678,
				ErrCode:   FaultUser,
			}

			act := k.Trap(tf)

			Expect(act.Kind).To(Equal(ActionHalt))
			Expect(act.Reason).To(ContainSubstring("keyboard abort"))
		})
	})
})
