// Package trigger converts angle-anchored action requests into time-based
// scheduling calls as trigger tooth edges are observed.
package trigger

import (
	"github.com/rotorlab/trigsched/sim"
)

// TriggerIndexUndefined marks a schedule request made without knowledge of
// the most recent tooth edge.
const TriggerIndexUndefined = ^uint32(0)

// An Event is a pending request to fire an action at an angular position.
// Exactly two kinds exist: ToothEvent anchors to a trigger tooth index,
// PhaseEvent anchors to an absolute engine phase. Events are owned by
// their callers for their full lifetime and may be reused indefinitely
// across engine cycles; the scheduler only links and unlinks them.
type Event interface {
	// ShouldSchedule reports whether the target angle became reachable
	// given the just-observed tooth index and phase window.
	ShouldSchedule(triggerIndex uint32, currentPhase, nextPhase sim.Angle) bool

	// AngleFromNow returns the remaining angular offset to apply when
	// converting to a time-based delay.
	AngleFromNow(currentPhase sim.Angle) sim.Angle

	dueAtEdge(triggerIndex uint32, currentPhase, nextPhase sim.Angle) bool
	base() *EventBase
}

// EventBase carries the state shared by both event kinds: the action to
// invoke, the reusable scheduling handle, and the intrusive link used
// while the event sits in a pending queue. An event belongs to at most one
// queue at any instant.
type EventBase struct {
	action     sim.Action
	scheduling sim.Scheduling
	next       Event
}

func (b *EventBase) base() *EventBase {
	return b
}

// Scheduling exposes the event's reusable time-based request handle.
// External protection logic, such as overdwell protection, may arm a
// provisional request on it; the scheduler cancels and re-arms the handle
// when the precise time becomes known.
func (b *EventBase) Scheduling() *sim.Scheduling {
	return &b.scheduling
}

// A ToothEvent fires on one exact trigger tooth, at a fixed angular offset
// past that tooth's edge. Legacy callers reason in this representation
// because it is precise for simple trigger wheels.
type ToothEvent struct {
	EventBase

	TriggerIndex uint32
	AngleOffset  sim.Angle
}

// ShouldSchedule is true only on the anchor tooth.
func (e *ToothEvent) ShouldSchedule(
	triggerIndex uint32,
	_, _ sim.Angle,
) bool {
	return e.TriggerIndex == triggerIndex
}

// AngleFromNow returns the stored offset. The time conversion is always
// relative to the anchor tooth's timestamp, not to the current phase.
func (e *ToothEvent) AngleFromNow(_ sim.Angle) sim.Angle {
	return e.AngleOffset
}

func (e *ToothEvent) dueAtEdge(
	triggerIndex uint32,
	_, _ sim.Angle,
) bool {
	return triggerIndex != TriggerIndexUndefined &&
		e.TriggerIndex == triggerIndex
}

// A PhaseEvent fires at an absolute position within the engine's angular
// cycle. This representation is uniform across trigger wheel shapes.
type PhaseEvent struct {
	EventBase

	EnginePhase sim.Angle

	// Cycle is the angular cycle length. Zero means a four-stroke 720
	// degree cycle.
	Cycle sim.Angle
}

func (e *PhaseEvent) cycle() sim.Angle {
	if e.Cycle == 0 {
		return sim.FourStrokeCycle
	}

	return e.Cycle
}

// ShouldSchedule is true when the target phase lies within the half-open
// window [currentPhase, nextPhase), including windows that wrap past the
// cycle boundary.
func (e *PhaseEvent) ShouldSchedule(
	_ uint32,
	currentPhase, nextPhase sim.Angle,
) bool {
	return sim.IsPhaseInRange(e.EnginePhase, currentPhase, nextPhase)
}

// AngleFromNow returns the offset from the current phase to the target
// phase, folded into [0, cycle). The result is never negative.
func (e *PhaseEvent) AngleFromNow(currentPhase sim.Angle) sim.Angle {
	angleOffset := e.EnginePhase - currentPhase
	if angleOffset < 0 {
		angleOffset += e.cycle()
	}

	return angleOffset
}

func (e *PhaseEvent) dueAtEdge(
	triggerIndex uint32,
	currentPhase, nextPhase sim.Angle,
) bool {
	return e.ShouldSchedule(triggerIndex, currentPhase, nextPhase)
}
