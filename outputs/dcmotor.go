package outputs

import (
	"fmt"
	"math"
)

// ControlType selects how a two-pin DC motor is driven.
type ControlType int

const (
	// PWMEnablePin modulates the enable pin and uses the direction pins
	// as plain on/off outputs.
	PWMEnablePin ControlType = iota

	// PWMDirectionPins modulates the direction pins and uses the enable
	// pin as a plain on/off output.
	PWMDirectionPins
)

// DC motor hardware limits.
const (
	minDCMotorFrequency = 100
	maxDCMotorFrequency = 3000
)

// A TwoPinDCMotor drives an H-bridge with an enable channel and two
// direction channels.
type TwoPinDCMotor struct {
	enable PWM
	dir1   PWM
	dir2   PWM

	controlType ControlType
	inverted    bool
	value       float64
}

// Configure wires the motor's channels.
func (m *TwoPinDCMotor) Configure(
	enable, dir1, dir2 PWM,
	inverted bool,
) {
	m.enable = enable
	m.dir1 = dir1
	m.dir2 = dir2
	m.inverted = inverted
}

// SetType selects the control scheme.
func (m *TwoPinDCMotor) SetType(t ControlType) {
	m.controlType = t
}

// Set drives the motor with a duty in [-1, 1]. The sign selects the
// direction.
func (m *TwoPinDCMotor) Set(duty float64) {
	if duty > 1 {
		duty = 1
	}

	if duty < -1 {
		duty = -1
	}

	m.value = duty

	if m.inverted {
		duty = -duty
	}

	forward := duty >= 0
	magnitude := math.Abs(duty)

	switch m.controlType {
	case PWMEnablePin:
		m.enable.SetDuty(magnitude)
		m.setDirection(forward, 1)
	case PWMDirectionPins:
		m.enable.SetDuty(1)
		m.setDirection(forward, magnitude)
	}
}

func (m *TwoPinDCMotor) setDirection(forward bool, magnitude float64) {
	if forward {
		m.dir1.SetDuty(magnitude)
		m.dir2.SetDuty(0)
	} else {
		m.dir1.SetDuty(0)
		m.dir2.SetDuty(magnitude)
	}
}

// Get returns the last commanded duty.
func (m *TwoPinDCMotor) Get() float64 {
	return m.value
}

// IsOpenDirection reports whether the motor is commanded forward.
func (m *TwoPinDCMotor) IsOpenDirection() bool {
	return m.value >= 0
}

// DCHardwareConfig describes one DC motor's wiring.
type DCHardwareConfig struct {
	UseTwoWires bool
	Inverted    bool
	Frequency   int

	EnablePinName  string
	Dir1PinName    string
	Dir2PinName    string
	DisablePinName string
}

// DCHardware owns the pins and PWM channels behind one TwoPinDCMotor.
type DCHardware struct {
	pinEnable  OutputPin
	pinDir1    OutputPin
	pinDir2    OutputPin
	disablePin OutputPin

	pwm1 SimplePWM
	pwm2 SimplePWM

	started bool

	Motor TwoPinDCMotor
}

// Start configures the pins and PWM channels. Starting twice is a no-op.
// The frequency is clamped to the minimum; exceeding the hardware maximum
// is a configuration error.
func (hw *DCHardware) Start(cfg DCHardwareConfig) error {
	if hw.started {
		return nil
	}
	hw.started = true

	if cfg.UseTwoWires {
		hw.Motor.SetType(PWMDirectionPins)
	} else {
		hw.Motor.SetType(PWMEnablePin)
	}

	// Configure the disable pin first so things start in a safe state.
	hw.disablePin.Init(cfg.DisablePinName)
	hw.disablePin.SetValue(false)

	frequency := cfg.Frequency
	if frequency < minDCMotorFrequency {
		frequency = minDCMotorFrequency
	}

	if frequency > maxDCMotorFrequency {
		return fmt.Errorf(
			"DC motor frequency too high, maximum %d hz",
			maxDCMotorFrequency)
	}

	if cfg.UseTwoWires {
		hw.pinEnable.Init(cfg.EnablePinName)

		hw.pwm1.Init(cfg.Dir1PinName, frequency)
		hw.pwm2.Init(cfg.Dir2PinName, frequency)

		hw.Motor.Configure(
			PinPWM{&hw.pinEnable}, &hw.pwm1, &hw.pwm2, cfg.Inverted)

		return nil
	}

	hw.pinDir1.Init(cfg.Dir1PinName)
	hw.pinDir2.Init(cfg.Dir2PinName)

	hw.pwm1.Init(cfg.EnablePinName, frequency)

	hw.Motor.Configure(
		&hw.pwm1, PinPWM{&hw.pinDir1}, PinPWM{&hw.pinDir2}, cfg.Inverted)

	return nil
}

// SetFrequency changes both PWM channel frequencies.
func (hw *DCHardware) SetFrequency(frequency int) {
	hw.pwm1.SetFrequency(frequency)
	hw.pwm2.SetFrequency(frequency)
}
