package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/minos/datarecording"
	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/memview"
	"github.com/sarchlab/minos/monitoring"
	"github.com/sarchlab/minos/tracing"
	"github.com/sarchlab/minos/usersim"
)

var runFlags struct {
	monitorOn   bool
	monitorPort int
	openBrowser bool
	console     bool
	trace       bool
	dbName      string
	quantum     int
	maxTicks    uint64
	maxRuntime  time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run [command]",
	Short: "Boot the kernel and run until it halts",
	Long: `Boot the kernel and run until it halts. The optional command ` +
		`selects the program image loaded at pid 1; an unknown name loads ` +
		`the fallback set of four allocator processes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		command := ""
		if len(args) == 1 {
			command = args[0]
		}

		runKernel(command)
	},
}

func init() {
	defaultPort, _ := strconv.Atoi(envDefault("MINOS_PORT", "0"))

	runCmd.Flags().BoolVar(&runFlags.monitorOn, "monitor", true,
		"serve the memory picture over HTTP")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "port", defaultPort,
		"monitoring server port (0 picks a random one)")
	runCmd.Flags().BoolVar(&runFlags.openBrowser, "open", false,
		"open the monitoring page in a browser")
	runCmd.Flags().BoolVar(&runFlags.console, "console", false,
		"render the memory picture to stderr")
	runCmd.Flags().BoolVar(&runFlags.trace, "trace", false,
		"record traps and dispatches to a SQLite database")
	runCmd.Flags().StringVar(&runFlags.dbName, "db",
		envDefault("MINOS_DB", ""),
		"trace database name (empty picks a unique one)")
	runCmd.Flags().IntVar(&runFlags.quantum, "quantum", 32,
		"program steps between timer interrupts")
	runCmd.Flags().Uint64Var(&runFlags.maxTicks, "max-ticks", 0,
		"halt after this many timer interrupts (0 for no limit)")
	runCmd.Flags().DurationVar(&runFlags.maxRuntime, "max-runtime", 0,
		"halt after this much wall-clock time (0 for no limit)")

	rootCmd.AddCommand(runCmd)
}

func runKernel(command string) {
	keyboard := newAbortSwitch(runFlags.maxTicks, runFlags.maxRuntime)

	b := kernel.MakeBuilder().WithKeyboard(keyboard)

	var monitor *monitoring.Monitor
	if runFlags.monitorOn {
		monitor = monitoring.NewMonitor()
		if runFlags.monitorPort > 0 {
			monitor.WithPortNumber(runFlags.monitorPort)
		}

		b = b.WithDiagnostics(monitor)
	} else if runFlags.console {
		b = b.WithDiagnostics(&memview.ConsoleDiagnostics{Out: os.Stderr})
	}

	k := b.Build()
	keyboard.watch(k)

	if monitor != nil {
		monitor.RegisterKernel(k)

		url := monitor.StartServer()
		if runFlags.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				log.Printf("opening browser: %v", err)
			}
		}
	}

	if runFlags.trace {
		recorder := datarecording.NewDataRecorder(runFlags.dbName)
		defer recorder.Close()

		k.AcceptHook(tracing.NewDBTracer(recorder))
	}

	cpu := usersim.MakeBuilder().
		WithQuantum(runFlags.quantum).
		Build()

	k.Run(cpu, command)
}

// abortSwitch is the CLI's keyboard collaborator: Ctrl-C requests an
// abort, and so does running past the configured tick or wall-clock
// budget.
type abortSwitch struct {
	k        *kernel.Kernel
	sig      chan os.Signal
	maxTicks uint64
	deadline time.Time
}

func newAbortSwitch(maxTicks uint64, maxRuntime time.Duration) *abortSwitch {
	a := &abortSwitch{
		sig:      make(chan os.Signal, 1),
		maxTicks: maxTicks,
	}

	if maxRuntime > 0 {
		a.deadline = time.Now().Add(maxRuntime)
	}

	signal.Notify(a.sig, os.Interrupt)

	return a
}

func (a *abortSwitch) watch(k *kernel.Kernel) {
	a.k = k
}

// AbortRequested implements kernel.Keyboard.
func (a *abortSwitch) AbortRequested() bool {
	select {
	case <-a.sig:
		return true
	default:
	}

	if a.maxTicks > 0 && a.k != nil && a.k.Ticks() >= a.maxTicks {
		return true
	}

	if !a.deadline.IsZero() && time.Now().After(a.deadline) {
		return true
	}

	return false
}
