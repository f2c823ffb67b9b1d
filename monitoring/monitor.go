// Package monitoring turns a running simulation into a small HTTP server, so
// that the clock, the processes, and the progress of a long run can be
// watched and the run paused from outside.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// A Line is a waiting line whose occupancy can be watched.
type Line interface {
	Name() string
	Size() int
	Capacity() int
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	env             *sim.Environment
	lines           []Line
	portNumber      int
	openBrowser     bool
	profileDuration time.Duration
	logger          logrus.FieldLogger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		logger:          logrus.StandardLogger(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		m.logger.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets where the monitor reports its address and errors.
func (m *Monitor) WithLogger(l logrus.FieldLogger) *Monitor {
	m.logger = l
	return m
}

// RegisterEnvironment registers the environment that runs the simulation.
func (m *Monitor) RegisterEnvironment(env *sim.Environment) {
	m.env = env
}

// RegisterLine registers a waiting line to be watched.
func (m *Monitor) RegisterLine(l Line) {
	m.lines = append(m.lines, l)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        idgen.RunID(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves the monitoring API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.continueRun)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/processes", m.listProcesses)
	r.HandleFunc("/api/process/{id}", m.processDetails)
	r.HandleFunc("/api/lines", m.listLines)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitoring: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d/api/now",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Infof("Monitoring simulation with %s", url)

	handler := m.Handler()

	go func() {
		if err := http.Serve(listener, handler); err != nil {
			m.logger.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.logger.WithError(err).Warn("cannot open browser")
		}
	}

	return listener.Addr().String(), nil
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.env.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueRun(w http.ResponseWriter, _ *http.Request) {
	m.env.Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Now      float64 `json:"now"`
	Paused   bool    `json:"paused"`
	QueueLen int     `json:"queue_len"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var rsp nowRsp

	m.env.Inspect(func() {
		rsp.Now = float64(m.env.Now())
		rsp.QueueLen = m.env.QueueLen()
	})
	rsp.Paused = m.env.IsPaused()

	m.writeJSON(w, rsp)
}

// ProcessInfo is the snapshot of a process served by the monitor.
type ProcessInfo struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	WaitingOn string `json:"waiting_on,omitempty"`
	Err       string `json:"error,omitempty"`
}

func snapshot(p *sim.Process) ProcessInfo {
	info := ProcessInfo{
		ID:    uint64(p.ID()),
		Name:  p.Name(),
		State: p.State().String(),
	}

	if evt := p.WaitingOn(); evt != nil {
		info.WaitingOn = evt.String()
	}

	if err := p.Err(); err != nil {
		info.Err = err.Error()
	}

	return info
}

func (m *Monitor) listProcesses(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	infos := []ProcessInfo{}

	m.env.Inspect(func() {
		for _, p := range m.env.Processes() {
			if state != "" && p.State().String() != state {
				continue
			}

			infos = append(infos, snapshot(p))
		}
	})

	m.writeJSON(w, infos)
}

func (m *Monitor) processDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid process id", http.StatusBadRequest)
		return
	}

	var info *ProcessInfo

	m.env.Inspect(func() {
		for _, p := range m.env.Processes() {
			if uint64(p.ID()) == id {
				s := snapshot(p)
				info = &s

				return
			}
		}
	})

	if info == nil {
		http.Error(w, "Process not found", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(info)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		m.logger.WithError(err).Error("cannot serialize process")
	}
}

type lineRsp struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
}

func (m *Monitor) listLines(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]lineRsp, 0, len(m.lines))

	m.env.Inspect(func() {
		for _, l := range m.lines {
			rsp = append(rsp, lineRsp{
				Name:     l.Name(),
				Size:     l.Size(),
				Capacity: l.Capacity(),
			})
		}
	})

	m.writeJSON(w, rsp)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.logger.WithError(err).Warn("cannot write response")
	}
}
