package outputs

import (
	"github.com/rotorlab/trigsched/sim"
)

// A FuelPumpController drives the low pressure fuel pump relay: prime the
// pump for a short window when the ignition turns on, then keep it on
// only while the engine has moved recently.
type FuelPumpController struct {
	Relay *OutputPin

	// PrimeDuration is how long the pump primes after ignition-on.
	PrimeDuration sim.VTimeInSec

	// MovedRecentlyWindow is how long after the last trigger edge the
	// engine still counts as turning.
	MovedRecentlyWindow sim.VTimeInSec

	ignitionOn bool
	ignOnAt    sim.VTimeInSec

	sawEdge    bool
	lastEdgeAt sim.VTimeInSec

	isPrime              bool
	engineTurnedRecently bool
	isPumpOn             bool
}

// OnIgnitionStateChanged records ignition transitions. Turning the
// ignition on restarts the prime window.
func (c *FuelPumpController) OnIgnitionStateChanged(
	on bool,
	now sim.VTimeInSec,
) {
	c.ignitionOn = on
	if on {
		c.ignOnAt = now
	}
}

// NoteTriggerEdge records that a tooth edge was observed, meaning the
// engine is turning.
func (c *FuelPumpController) NoteTriggerEdge(now sim.VTimeInSec) {
	c.sawEdge = true
	c.lastEdgeAt = now
}

// OnSlowCallback recomputes the pump state and drives the relay. It is
// meant to run periodically.
func (c *FuelPumpController) OnSlowCallback(now sim.VTimeInSec) {
	sinceIgnOn := now - c.ignOnAt

	c.isPrime = c.ignitionOn &&
		sinceIgnOn >= 0 && sinceIgnOn < c.PrimeDuration

	c.engineTurnedRecently = c.sawEdge &&
		now-c.lastEdgeAt < c.MovedRecentlyWindow

	c.isPumpOn = c.isPrime || c.engineTurnedRecently

	if c.Relay != nil {
		c.Relay.SetValue(c.isPumpOn)
	}
}

// IsPumpOn reports the state computed by the last OnSlowCallback.
func (c *FuelPumpController) IsPumpOn() bool {
	return c.isPumpOn
}

// IsPrime reports whether the last OnSlowCallback fell inside the prime
// window.
func (c *FuelPumpController) IsPrime() bool {
	return c.isPrime
}
