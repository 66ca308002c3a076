// Package simulation wires an executor, a trigger scheduler, a trigger
// wheel, data recording and monitoring into one runnable simulation.
package simulation

import (
	"github.com/rotorlab/trigsched/datarecording"
	"github.com/rotorlab/trigsched/monitoring"
	"github.com/rotorlab/trigsched/sim"
	"github.com/rotorlab/trigsched/trigger"
	"github.com/rotorlab/trigsched/wheel"
)

// A Simulation provides the services required to run a trigger scheduling
// scenario.
type Simulation struct {
	id string

	executor     *sim.TimerExecutor
	scheduler    *trigger.Scheduler
	wheel        *wheel.Wheel
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Executor returns the time-based executor used in the simulation.
func (s *Simulation) Executor() *sim.TimerExecutor {
	return s.executor
}

// Scheduler returns the trigger scheduler under simulation.
func (s *Simulation) Scheduler() *trigger.Scheduler {
	return s.scheduler
}

// Wheel returns the trigger wheel shape.
func (s *Simulation) Wheel() *wheel.Wheel {
	return s.wheel
}

// DataRecorder returns the data recorder used in the simulation.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// AdvanceToEdge feeds one tooth edge to the scheduler and runs the
// executor clock up to the edge's timestamp.
func (s *Simulation) AdvanceToEdge(e wheel.Edge) {
	s.executor.RunUntil(e.Timestamp)
	s.scheduler.OnTriggerTooth(
		e.RPM, e.Index, e.Timestamp, e.CurrentPhase, e.NextPhase)
}

// Terminate flushes all recorded data.
func (s *Simulation) Terminate() {
	s.dataRecorder.Flush()
}

// FiredEventEntry is the recorded row for one armed time-based request.
type FiredEventEntry struct {
	Handle string
	Time   float64
	Tooth  uint32
	Angle  float64
}

// firedEventRecorderHook records every armed request into the data
// recorder.
type firedEventRecorderHook struct {
	recorder datarecording.DataRecorder
}

func (h *firedEventRecorderHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != trigger.HookPosEventFired {
		return
	}

	detail := ctx.Detail.(trigger.FiredDetail)

	h.recorder.InsertData("fired_events", FiredEventEntry{
		Handle: detail.Handle,
		Time:   float64(detail.When),
		Tooth:  detail.TriggerIndex,
		Angle:  float64(detail.Angle),
	})
}
