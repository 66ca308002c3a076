package simulation

import (
	"database/sql"

	"github.com/rs/xid"

	"github.com/rotorlab/trigsched/datarecording"
	"github.com/rotorlab/trigsched/monitoring"
	"github.com/rotorlab/trigsched/sim"
	"github.com/rotorlab/trigsched/trigger"
	"github.com/rotorlab/trigsched/wheel"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	outputFileName string
	inMemoryDB     *sql.DB

	teeth int
	cycle sim.Angle
}

// MakeBuilder creates a new builder with a 60-tooth wheel over a
// four-stroke cycle.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
		teeth:     60,
		cycle:     sim.FourStrokeCycle,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithDB records into an already-open database instead of a file. Useful
// for tests.
func (b Builder) WithDB(db *sql.DB) Builder {
	b.inMemoryDB = db
	return b
}

// WithWheel sets the trigger wheel shape.
func (b Builder) WithWheel(teeth int, cycle sim.Angle) Builder {
	b.teeth = teeth
	b.cycle = cycle
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := new(Simulation)
	s.id = xid.New().String()

	if b.inMemoryDB != nil {
		s.dataRecorder = datarecording.NewWithDB(b.inMemoryDB)
	} else {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "trigsched_sim_" + s.id
		}
		s.dataRecorder = datarecording.New(outputPath)
	}
	s.dataRecorder.CreateTable("fired_events", FiredEventEntry{})

	s.executor = sim.NewTimerExecutor()
	s.wheel = wheel.New(b.teeth, b.cycle)
	s.scheduler = trigger.NewScheduler(s.executor, b.cycle).
		WithToothLocator(s.wheel)

	s.scheduler.AcceptHook(&firedEventRecorderHook{s.dataRecorder})

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterScheduler(s.scheduler)
		s.monitor.RegisterClock(s.executor)
		s.monitor.RegisterRunner(s.executor)
		s.monitor.StartServer()
	}

	return s
}
