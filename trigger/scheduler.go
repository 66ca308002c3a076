package trigger

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/rotorlab/trigsched/sim"
)

// HookPosEventQueued is a hook position that triggers after an event is
// appended to the pending queue.
var HookPosEventQueued = &sim.HookPos{Name: "EventQueued"}

// HookPosEventFired is a hook position that triggers after an event's
// time-based request is armed.
var HookPosEventFired = &sim.HookPos{Name: "EventFired"}

// HookPosEventReuse is a hook position that triggers when a schedule
// request names an event that is already in the pending queue.
var HookPosEventReuse = &sim.HookPos{Name: "EventReuse"}

// FiredDetail is the hook detail attached at HookPosEventFired.
type FiredDetail struct {
	Handle       string
	When         sim.VTimeInSec
	TriggerIndex uint32
	Angle        sim.Angle
}

// A ToothLocator decomposes an absolute engine angle into the nearest
// preceding trigger tooth and the remaining offset past that tooth's edge.
type ToothLocator interface {
	LocateTooth(target sim.Angle) (index uint32, offset sim.Angle)
}

// A Scheduler owns one pending queue of angle-anchored events and
// implements the angle-to-time conversion policy: convert as late as
// possible, on the last tooth before the target, so that the imprecise
// constant-RPM assumption only covers the short residual angle.
//
// Two execution contexts touch the queue concurrently: producers calling
// ScheduleOrQueue and the per-edge consumer calling OnTriggerTooth. The
// lock only ever guards pointer swaps and the membership check, never the
// O(n) scan.
type Scheduler struct {
	sim.HookableBase

	executor sim.Executor
	locator  ToothLocator
	cycle    sim.Angle
	strict   bool

	mu   sync.Mutex
	head Event

	reuseCount uint64
}

// NewScheduler creates a Scheduler for one trigger domain. The executor
// receives the converted time-based requests. The cycle is the angular
// cycle length, e.g. 720 for a four-stroke engine.
func NewScheduler(executor sim.Executor, cycle sim.Angle) *Scheduler {
	if executor == nil {
		log.Panic("scheduler requires an executor")
	}

	if cycle <= 0 {
		log.Panic("cycle length must be positive")
	}

	s := new(Scheduler)
	s.executor = executor
	s.cycle = cycle

	return s
}

// WithToothLocator sets the locator used to position ToothEvents from an
// absolute target angle. Without a locator, callers position ToothEvents
// themselves before scheduling.
func (s *Scheduler) WithToothLocator(l ToothLocator) *Scheduler {
	s.locator = l
	return s
}

// WithStrictMembership makes a double-queue-membership attempt panic
// instead of being refused quietly. Intended for development builds.
func (s *Scheduler) WithStrictMembership() *Scheduler {
	s.strict = true
	return s
}

// ScheduleOrQueue requests that action runs when the engine reaches the
// target angle.
//
// If the most recent tooth edge is known, pass its index, timestamp, speed
// and phase window; when the event is already due at that edge it is
// converted to a time-based request immediately, which is the best
// precision possible, and ScheduleOrQueue returns true. Pass
// TriggerIndexUndefined when no recent edge is known.
//
// Otherwise the event is appended to the pending queue to be converted on
// a later tooth, and ScheduleOrQueue returns false. An event that is
// already queued is never appended twice: the request is refused, counted,
// and reported through HookPosEventReuse.
func (s *Scheduler) ScheduleOrQueue(
	evt Event,
	rpm sim.RPM,
	triggerIndex uint32,
	edgeTimestamp sim.VTimeInSec,
	angle sim.Angle,
	currentPhase, nextPhase sim.Angle,
	action sim.Action,
) bool {
	s.setTargetAngle(evt, angle)

	if triggerIndex != TriggerIndexUndefined && rpm.IsValid() &&
		evt.dueAtEdge(triggerIndex, currentPhase, nextPhase) {
		s.arm(evt, rpm, triggerIndex, edgeTimestamp, currentPhase, action)
		return true
	}

	b := evt.base()
	b.action = action

	s.mu.Lock()

	// TODO: the membership check is O(n); a membership bit on EventBase
	// would make it O(1) but needs careful clearing on every unlink path.
	if s.isQueued(evt) {
		s.mu.Unlock()

		atomic.AddUint64(&s.reuseCount, 1)
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosEventReuse,
			Item:   evt,
		})

		if s.strict {
			log.Panic("event is already in the pending queue")
		}

		return false
	}

	// Append, never prepend, so that paired requests fire in submission
	// order: an on edge is always armed before its off edge.
	s.append(evt)
	s.mu.Unlock()

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosEventQueued,
		Item:   evt,
	})

	return false
}

// OnTriggerTooth advances scheduling to the just-observed tooth edge. It
// must be invoked exactly once per physical edge. Every pending event
// whose target falls within the entered phase window is converted to a
// time-based request; the rest stay queued for a later tooth.
func (s *Scheduler) OnTriggerTooth(
	rpm sim.RPM,
	triggerIndex uint32,
	edgeTimestamp sim.VTimeInSec,
	currentPhase, nextPhase sim.Angle,
) {
	if !rpm.IsValid() {
		// A single edge after a pause, for instance. The queue stays
		// untouched until a trustworthy edge arrives.
		return
	}

	s.mu.Lock()
	keepHead := s.head
	s.head = nil
	s.mu.Unlock()

	// The scan runs on the detached list with no lock held, so producers
	// are never blocked for longer than a pointer swap.
	var keptHead, keptTail Event

	current := keepHead
	for current != nil {
		next := current.base().next

		if current.ShouldSchedule(triggerIndex, currentPhase, nextPhase) {
			b := current.base()
			b.next = nil

			// The handle may hold a provisional request armed by
			// overdwell protection. Cancel it so the re-arm below lands
			// at the now-known precise time.
			s.executor.Cancel(&b.scheduling)

			s.arm(current, rpm, triggerIndex, edgeTimestamp,
				currentPhase, b.action)
		} else {
			current.base().next = nil

			if keptTail == nil {
				keptHead = current
			} else {
				keptTail.base().next = current
			}
			keptTail = current
		}

		current = next
	}

	if keptHead != nil {
		s.mu.Lock()

		// Events queued by producers during the scan accumulated on the
		// live head. The retained events were submitted earlier, so they
		// go in front.
		keptTail.base().next = s.head
		s.head = keptHead

		s.mu.Unlock()
	}
}

// QueueLen returns the number of events in the pending queue.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for e := s.head; e != nil; e = e.base().next {
		n++
	}

	return n
}

// EventAt returns the queued event at the given position. It is a debug
// accessor for tests and introspection.
func (s *Scheduler) EventAt(index int) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	for e := s.head; e != nil; e = e.base().next {
		if index == 0 {
			return e
		}
		index--
	}

	log.Panic("EventAt: index is past the end of the pending queue")

	return nil
}

// ReuseCount returns how many schedule requests were refused because the
// event was already queued. Observability only.
func (s *Scheduler) ReuseCount() uint64 {
	return atomic.LoadUint64(&s.reuseCount)
}

func (s *Scheduler) setTargetAngle(evt Event, angle sim.Angle) {
	switch e := evt.(type) {
	case *ToothEvent:
		if s.locator != nil {
			e.TriggerIndex, e.AngleOffset = s.locator.LocateTooth(angle)
		}
	case *PhaseEvent:
		e.EnginePhase = sim.WrapAngle(angle, s.cycle)
		e.Cycle = s.cycle
	}
}

func (s *Scheduler) arm(
	evt Event,
	rpm sim.RPM,
	triggerIndex uint32,
	edgeTimestamp sim.VTimeInSec,
	currentPhase sim.Angle,
	action sim.Action,
) {
	offset := evt.AngleFromNow(currentPhase)
	when := edgeTimestamp + sim.AngleToTime(offset, rpm)

	s.executor.Submit(&evt.base().scheduling, when, action)

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosEventFired,
		Item:   evt,
		Detail: FiredDetail{
			Handle:       evt.base().scheduling.ID(),
			When:         when,
			TriggerIndex: triggerIndex,
			Angle:        offset,
		},
	})
}

// isQueued reports whether the event is linked into the pending queue.
// The caller must hold the lock.
func (s *Scheduler) isQueued(evt Event) bool {
	for e := s.head; e != nil; e = e.base().next {
		if e == evt {
			return true
		}
	}

	return false
}

// append links the event to the queue tail. The caller must hold the lock.
func (s *Scheduler) append(evt Event) {
	evt.base().next = nil

	if s.head == nil {
		s.head = evt
		return
	}

	tail := s.head
	for tail.base().next != nil {
		tail = tail.base().next
	}

	tail.base().next = evt
}
