// Package wheel models an ideal trigger wheel and turns a rotational speed
// into the per-edge observation stream the trigger scheduler consumes.
package wheel

import (
	"log"

	"github.com/rotorlab/trigsched/sim"
)

// A Wheel describes evenly spaced trigger teeth over one engine cycle.
type Wheel struct {
	Teeth int
	Cycle sim.Angle
}

// New creates a Wheel with the given tooth count over the given cycle.
func New(teeth int, cycle sim.Angle) *Wheel {
	if teeth <= 0 {
		log.Panic("a trigger wheel needs at least one tooth")
	}

	if cycle <= 0 {
		log.Panic("cycle length must be positive")
	}

	return &Wheel{Teeth: teeth, Cycle: cycle}
}

// Pitch returns the angle between two consecutive tooth edges.
func (w *Wheel) Pitch() sim.Angle {
	return w.Cycle / sim.Angle(w.Teeth)
}

// ToothAngle returns the engine phase at which the tooth's edge occurs.
func (w *Wheel) ToothAngle(index uint32) sim.Angle {
	return sim.Angle(index) * w.Pitch()
}

// LocateTooth decomposes a target angle into the nearest preceding tooth
// and the remaining offset past that tooth's edge.
func (w *Wheel) LocateTooth(target sim.Angle) (uint32, sim.Angle) {
	target = sim.WrapAngle(target, w.Cycle)

	index := uint32(target / w.Pitch())
	if int(index) >= w.Teeth {
		index = uint32(w.Teeth - 1)
	}

	return index, target - w.ToothAngle(index)
}

// An Edge is one observed trigger tooth transition.
type Edge struct {
	RPM          sim.RPM
	Index        uint32
	Timestamp    sim.VTimeInSec
	CurrentPhase sim.Angle
	NextPhase    sim.Angle
}

// A Generator produces the edge stream of a wheel spinning at a set
// speed. The speed may change between edges.
type Generator struct {
	wheel *Wheel
	rpm   sim.RPM
	index uint32
	time  sim.VTimeInSec
}

// NewGenerator creates a Generator starting at tooth zero, time zero.
func NewGenerator(w *Wheel, rpm sim.RPM) *Generator {
	return &Generator{wheel: w, rpm: rpm}
}

// SetRPM changes the speed applied to subsequent edges.
func (g *Generator) SetRPM(rpm sim.RPM) {
	g.rpm = rpm
}

// Next returns the next tooth edge and advances the wheel by one tooth.
func (g *Generator) Next() Edge {
	currentPhase := g.wheel.ToothAngle(g.index)

	nextPhase := g.wheel.ToothAngle(g.index + 1)
	if int(g.index)+1 >= g.wheel.Teeth {
		nextPhase = g.wheel.Cycle
	}

	edge := Edge{
		RPM:          g.rpm,
		Index:        g.index,
		Timestamp:    g.time,
		CurrentPhase: currentPhase,
		NextPhase:    nextPhase,
	}

	g.index++
	if int(g.index) >= g.wheel.Teeth {
		g.index = 0
	}

	if g.rpm.IsValid() {
		g.time += sim.AngleToTime(g.wheel.Pitch(), g.rpm)
	}

	return edge
}
