package outputs

// PWM is anything that accepts a duty cycle.
type PWM interface {
	SetDuty(duty float64)
}

// PinPWM uses an OutputPin as PWM that can only do 0 or 1.
type PinPWM struct {
	Pin *OutputPin
}

// SetDuty drives the pin high for any duty above one half.
func (p PinPWM) SetDuty(duty float64) {
	p.Pin.SetValue(duty > 0.5)
}

// SimplePWM is a soft PWM channel: a frequency plus a duty cycle.
type SimplePWM struct {
	name      string
	frequency int
	duty      float64
}

// Init assigns the channel's name and frequency.
func (p *SimplePWM) Init(name string, frequency int) {
	p.name = name
	p.frequency = frequency
}

// SetFrequency changes the channel frequency.
func (p *SimplePWM) SetFrequency(frequency int) {
	p.frequency = frequency
}

// Frequency returns the channel frequency.
func (p *SimplePWM) Frequency() int {
	return p.frequency
}

// SetDuty sets the duty cycle.
func (p *SimplePWM) SetDuty(duty float64) {
	p.duty = duty
}

// Duty returns the duty cycle.
func (p *SimplePWM) Duty() float64 {
	return p.duty
}
