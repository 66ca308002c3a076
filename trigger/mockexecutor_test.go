package trigger

import (
	"github.com/rotorlab/trigsched/sim"
)

type submission struct {
	handle *sim.Scheduling
	when   sim.VTimeInSec
	action sim.Action
}

// MockExecutor records the requests submitted to it, in order, to simplify
// the unit tests of the scheduler.
type MockExecutor struct {
	submissions []submission
	cancels     []*sim.Scheduling

	// onSubmit, when set, runs after each recorded submission. Tests use
	// it to interleave producer calls with a running scan.
	onSubmit func()
}

// NewMockExecutor returns a new mock executor.
func NewMockExecutor() *MockExecutor {
	return new(MockExecutor)
}

// Submit records the request.
func (e *MockExecutor) Submit(
	s *sim.Scheduling,
	when sim.VTimeInSec,
	action sim.Action,
) {
	e.submissions = append(e.submissions, submission{s, when, action})

	if e.onSubmit != nil {
		e.onSubmit()
	}
}

// Cancel records the cancellation.
func (e *MockExecutor) Cancel(s *sim.Scheduling) {
	e.cancels = append(e.cancels, s)
}
