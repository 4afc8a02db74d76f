// Package memview computes the classic teaching-kernel memory picture:
// one tag per physical page and, for one selected process, one tag per
// user-region virtual page.
package memview

import (
	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/mem"
)

// PageKind classifies the use of one page.
type PageKind int

// The page kinds, from the point of view of the memory picture.
const (
	PageFree PageKind = iota
	PageKernel
	PageConsole
	PageProcess
	PageShared
	PageTable
)

// A PageTag describes one page of the picture.
type PageTag struct {
	Kind  PageKind
	Owner kernel.Pid
}

// Rune returns the single-character rendering of the tag.
func (t PageTag) Rune() rune {
	switch t.Kind {
	case PageFree:
		return '.'
	case PageKernel:
		return 'K'
	case PageConsole:
		return 'C'
	case PageShared:
		return 'S'
	case PageTable:
		return 'T'
	case PageProcess:
		if t.Owner < 10 {
			return rune('0' + t.Owner)
		}

		return rune('A' + t.Owner - 10)
	}

	return '?'
}

// A ProcInfo summarizes one live process for the picture.
type ProcInfo struct {
	PID   kernel.Pid `json:"pid"`
	State string     `json:"state"`
	IP    uint64     `json:"ip"`
	Pages int        `json:"pages"`
}

// A View is one snapshot of the memory picture.
type View struct {
	Ticks     uint64
	Showing   kernel.Pid
	Physical  []PageTag
	Virtual   []PageTag
	Processes []ProcInfo
}

// Snapshot computes the picture for the kernel's current state,
// showing the virtual address space of the given process (or none for
// pid 0).
func Snapshot(k *kernel.Kernel, showing kernel.Pid) View {
	v := View{
		Ticks:    k.Ticks(),
		Showing:  showing,
		Physical: make([]PageTag, mem.NumFrames),
	}

	tagFixedRegions(v.Physical)
	tagProcessPages(k, v.Physical, &v)

	if showing != 0 && k.Proc(showing).State != kernel.StateFree {
		v.Virtual = virtualMap(k.Proc(showing))
	}

	return v
}

func tagFixedRegions(phys []PageTag) {
	for f := mem.Frame(0); f.Addr() < mem.UserStart; f++ {
		phys[f] = PageTag{Kind: PageKernel}
	}

	phys[mem.ConsoleFrame] = PageTag{Kind: PageConsole}
}

// tagProcessPages walks every live process's address space. A frame
// reachable from one space belongs to that process; a frame reachable
// from several is shared. Frames holding the tables themselves are
// tagged separately.
func tagProcessPages(k *kernel.Kernel, phys []PageTag, v *View) {
	for pid := kernel.Pid(1); pid < kernel.PIDMax; pid++ {
		p := k.Proc(pid)
		if p.State == kernel.StateFree || p.Space == nil {
			continue
		}

		info := ProcInfo{
			PID:   pid,
			State: p.State.String(),
			IP:    p.Regs.IP,
		}

		it := p.Space.Pages(mem.UserStart, mem.VirtualCeiling)
		for m, ok := it.Next(); ok; m, ok = it.Next() {
			if !m.User() || m.Frame == mem.ConsoleFrame {
				continue
			}

			info.Pages++
			tagOwned(phys, m.Frame, pid)
		}

		for _, tf := range p.Space.TableFrames() {
			phys[tf] = PageTag{Kind: PageTable, Owner: pid}
		}

		phys[p.Space.Root()] = PageTag{Kind: PageTable, Owner: pid}

		v.Processes = append(v.Processes, info)
	}
}

func tagOwned(phys []PageTag, f mem.Frame, pid kernel.Pid) {
	switch phys[f].Kind {
	case PageFree:
		phys[f] = PageTag{Kind: PageProcess, Owner: pid}
	case PageProcess:
		if phys[f].Owner != pid {
			phys[f] = PageTag{Kind: PageShared}
		}
	}
}

func virtualMap(p *kernel.Proc) []PageTag {
	nPages := (mem.VirtualCeiling - mem.UserStart) / mem.PageSize
	virt := make([]PageTag, nPages)

	it := p.Space.Pages(mem.UserStart, mem.VirtualCeiling)
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		idx := (m.VA - mem.UserStart) / mem.PageSize

		switch {
		case !m.User():
			virt[idx] = PageTag{Kind: PageKernel}
		case m.Frame == mem.ConsoleFrame:
			virt[idx] = PageTag{Kind: PageConsole}
		case !m.Writable():
			virt[idx] = PageTag{Kind: PageShared}
		default:
			virt[idx] = PageTag{Kind: PageProcess, Owner: p.PID}
		}
	}

	return virt
}
