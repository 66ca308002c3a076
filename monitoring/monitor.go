// Package monitoring turns a running simulation into a small web server
// that exposes the scheduler state for external inspection.
package monitoring

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rotorlab/trigsched/sim"
	"github.com/rotorlab/trigsched/trigger"
)

// A RunController can advance the executor clock, firing the requests
// that become due.
type RunController interface {
	RunUntil(t sim.VTimeInSec) int
}

// Monitor serves the state of a trigger scheduler over HTTP.
type Monitor struct {
	scheduler  *trigger.Scheduler
	clock      sim.TimeTeller
	runner     RunController
	portNumber int
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterScheduler registers the scheduler to be monitored.
func (m *Monitor) RegisterScheduler(s *trigger.Scheduler) {
	m.scheduler = s
}

// RegisterClock registers the time source reported by /api/now.
func (m *Monitor) RegisterClock(t sim.TimeTeller) {
	m.clock = t
}

// RegisterRunner registers the executor driven by /api/run.
func (m *Monitor) RegisterRunner(r RunController) {
	m.runner = r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/queue", m.queue)
	r.HandleFunc("/api/reuse", m.reuse)
	r.HandleFunc("/api/run", m.run)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring scheduler with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := sim.VTimeInSec(0)
	if m.clock != nil {
		now = m.clock.CurrentTime()
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) queue(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"pending\":%d}", m.scheduler.QueueLen())
}

func (m *Monitor) reuse(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"reuse\":%d}", m.scheduler.ReuseCount())
}

func (m *Monitor) run(w http.ResponseWriter, r *http.Request) {
	until, err := strconv.ParseFloat(r.URL.Query().Get("until"), 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "{\"err\":\"run requires an until parameter\"}")

		return
	}

	fired := m.runner.RunUntil(sim.VTimeInSec(until))

	fmt.Fprintf(w, "{\"fired\":%d}", fired)
}

func dieOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}
