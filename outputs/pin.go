// Package outputs holds the thin hardware-facing wrappers that consume
// scheduled callbacks: output pins, PWM wrappers, DC motor control and the
// fuel pump relay logic.
package outputs

import "sync"

// An OutputPin is a named boolean output.
type OutputPin struct {
	mu    sync.Mutex
	name  string
	value bool
}

// Init assigns the pin's name and drives it low.
func (p *OutputPin) Init(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.name = name
	p.value = false
}

// Name returns the name assigned at Init.
func (p *OutputPin) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.name
}

// SetValue drives the pin.
func (p *OutputPin) SetValue(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.value = v
}

// Value returns the pin's current level.
func (p *OutputPin) Value() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value
}
