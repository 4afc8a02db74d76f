package memview

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/mem"
)

// A Rotation picks which process's virtual memory to show, switching
// to the next live process every quarter second of simulated time.
type Rotation struct {
	lastTicks uint64
	showing   kernel.Pid
}

// Advance returns the pid to show for the kernel's current state.
func (r *Rotation) Advance(k *kernel.Kernel) kernel.Pid {
	if r.showing == 0 {
		r.showing = 1
	}

	if k.Ticks()-r.lastTicks >= kernel.HZ/4 {
		r.lastTicks = k.Ticks()
		r.showing = (r.showing + 1) % kernel.PIDMax
	}

	if live(k, r.showing) {
		return r.showing
	}

	for i := 0; i < kernel.PIDMax; i++ {
		r.showing = (r.showing + 1) % kernel.PIDMax
		if live(k, r.showing) {
			return r.showing
		}
	}

	return 0
}

func live(k *kernel.Kernel, pid kernel.Pid) bool {
	if pid == 0 {
		return false
	}

	p := k.Proc(pid)

	return p.State != kernel.StateFree && p.Space != nil
}

// RenderText draws the picture as plain text, one rune per page, in
// rows of 64.
func (v View) RenderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "PHYSICAL MEMORY (tick %d)\n", v.Ticks)
	renderRow(&b, v.Physical, 0)

	if v.Virtual != nil {
		fmt.Fprintf(&b, "VIRTUAL ADDRESS SPACE OF PID %d\n", v.Showing)
		renderRow(&b, v.Virtual, mem.UserStart)
	} else {
		b.WriteString("VIRTUAL ADDRESS SPACE\n  [no process to show]\n")
	}

	return b.String()
}

func renderRow(b *strings.Builder, tags []PageTag, base uint64) {
	const perRow = 64

	for i, t := range tags {
		if i%perRow == 0 {
			fmt.Fprintf(b, "%#08x ", base+uint64(i)*mem.PageSize)
		}

		b.WriteRune(t.Rune())

		if i%perRow == perRow-1 {
			b.WriteByte('\n')
		}
	}

	if len(tags)%perRow != 0 {
		b.WriteByte('\n')
	}
}

// ConsoleDiagnostics renders the rotating memory picture to a writer.
// It satisfies the kernel's diagnostics interface and throttles itself
// to one frame per quarter second of simulated time.
type ConsoleDiagnostics struct {
	Out      io.Writer
	rotation Rotation
	lastDraw uint64
}

// Refresh implements kernel.Diagnostics.
func (c *ConsoleDiagnostics) Refresh(k *kernel.Kernel) {
	if c.lastDraw != 0 && k.Ticks()-c.lastDraw < kernel.HZ/4 {
		return
	}

	c.lastDraw = k.Ticks()
	showing := c.rotation.Advance(k)

	fmt.Fprint(c.Out, Snapshot(k, showing).RenderText())
}
