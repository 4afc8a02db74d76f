package kernel

import (
	"github.com/sarchlab/minos/image"
)

// Diagnostics renders a view of the kernel's memory state. It is
// invoked on every trap and periodically while the scheduler idles.
type Diagnostics interface {
	Refresh(k *Kernel)
}

// Keyboard answers the non-blocking "was an abort requested?" check.
// A positive answer halts the whole system.
type Keyboard interface {
	AbortRequested() bool
}

// InterruptController acknowledges hardware interrupts.
type InterruptController interface {
	AckTimer()
}

// ImageLibrary resolves a program name to its image.
type ImageLibrary interface {
	Lookup(name string) (image.Image, bool)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Refresh(*Kernel) {}

type nopKeyboard struct{}

func (nopKeyboard) AbortRequested() bool { return false }

type nopInterruptController struct{}

func (nopInterruptController) AckTimer() {}
