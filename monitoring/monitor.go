// Package monitoring turns a kernel run into a small web server, so
// the memory picture and the process table can be watched from a
// browser while the simulation runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/minos/kernel"
	"github.com/sarchlab/minos/memview"
)

// Monitor serves the kernel's memory picture and process table over
// HTTP. It implements the kernel's diagnostics interface: every trap
// refreshes the snapshot the server hands out.
//
// The kernel itself is single-context; the HTTP handlers only ever
// touch the snapshot, taken under the lock during Refresh.
type Monitor struct {
	kernel     *kernel.Kernel
	portNumber int

	mu       sync.Mutex
	rotation memview.Rotation
	view     memview.View
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterKernel registers the kernel being monitored.
func (m *Monitor) RegisterKernel(k *kernel.Kernel) {
	m.kernel = k
}

// Refresh implements kernel.Diagnostics: it recomputes the snapshot
// served over HTTP.
func (m *Monitor) Refresh(k *kernel.Kernel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	showing := m.rotation.Advance(k)
	m.view = memview.Snapshot(k, showing)
}

func (m *Monitor) snapshot() memview.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.view
}

// StartServer starts the monitor as a web server and returns the URL
// it listens on.
func (m *Monitor) StartServer() string {
	r := mux.NewRouter()
	r.HandleFunc("/api/ticks", m.ticks)
	r.HandleFunc("/api/processes", m.listProcesses)
	r.HandleFunc("/api/memview", m.memView)
	r.HandleFunc("/api/memview/text", m.memViewText)
	r.HandleFunc("/api/component/{name}", m.componentDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring kernel with %s\n", url)

	go func() {
		dieOnErr(http.Serve(listener, r))
	}()

	return url
}

func (m *Monitor) ticks(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"ticks\":%d}", m.snapshot().Ticks)
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	v := m.snapshot()

	procs := v.Processes
	if procs == nil {
		procs = []memview.ProcInfo{}
	}

	b, err := json.Marshal(procs)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

type memViewRsp struct {
	Ticks    uint64 `json:"ticks"`
	Showing  int    `json:"showing"`
	Physical string `json:"physical"`
	Virtual  string `json:"virtual"`
}

func tagString(tags []memview.PageTag) string {
	runes := make([]rune, len(tags))
	for i, t := range tags {
		runes[i] = t.Rune()
	}

	return string(runes)
}

func (m *Monitor) memView(w http.ResponseWriter, _ *http.Request) {
	v := m.snapshot()

	rsp := memViewRsp{
		Ticks:    v.Ticks,
		Showing:  int(v.Showing),
		Physical: tagString(v.Physical),
		Virtual:  tagString(v.Virtual),
	}

	b, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func (m *Monitor) memViewText(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, m.snapshot().RenderText())
}

// componentDetails serializes one kernel component for inspection.
func (m *Monitor) componentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var root any
	switch name {
	case "kernel":
		root = m.kernel
	case "allocator":
		root = m.kernel.Allocator()
	case "storage":
		root = m.kernel.Storage()
	default:
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Component not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)

	dieOnErr(serializer.Serialize(w))
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}

	b, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	b, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
