package sim

import (
	"container/heap"
	"log"
	"sync"
)

// A TimerExecutor is an Executor that keeps armed requests in a heap
// ordered by timestamp and fires them as the clock is advanced with
// RunUntil. Requests armed for the same timestamp fire in submission
// order.
type TimerExecutor struct {
	mu      sync.Mutex
	now     VTimeInSec
	heap    schedulingHeap
	nextSeq uint64
}

// NewTimerExecutor creates a TimerExecutor with the clock at zero.
func NewTimerExecutor() *TimerExecutor {
	e := new(TimerExecutor)
	e.heap = make(schedulingHeap, 0)

	return e
}

// Submit arms a request on the handle. A live request already on the
// handle is replaced.
func (e *TimerExecutor) Submit(s *Scheduling, when VTimeInSec, action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if when < e.now {
		log.Panic("scheduling an action earlier than current time")
	}

	if s.armed {
		heap.Remove(&e.heap, s.index)
	}

	s.when = when
	s.action = action
	s.armed = true
	s.seq = e.nextSeq
	e.nextSeq++

	heap.Push(&e.heap, s)
}

// Cancel removes the live request on the handle, if any.
func (e *TimerExecutor) Cancel(s *Scheduling) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.armed {
		return
	}

	heap.Remove(&e.heap, s.index)
	s.armed = false
}

// RunUntil advances the clock to t, invoking every request with a
// timestamp at or before t in timestamp order. It returns the number of
// requests fired.
func (e *TimerExecutor) RunUntil(t VTimeInSec) int {
	fired := 0

	for {
		e.mu.Lock()

		if e.heap.Len() == 0 || e.heap[0].when > t {
			if t > e.now {
				e.now = t
			}
			e.mu.Unlock()

			return fired
		}

		s := heap.Pop(&e.heap).(*Scheduling)
		s.armed = false

		if s.when > e.now {
			e.now = s.when
		}

		action := s.action
		e.mu.Unlock()

		action.Invoke()
		fired++
	}
}

// CurrentTime returns the executor clock.
func (e *TimerExecutor) CurrentTime() VTimeInSec {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// Len returns the number of live requests.
func (e *TimerExecutor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.heap.Len()
}

// IsArmed reports whether the handle has a live request on this executor.
func (e *TimerExecutor) IsArmed(s *Scheduling) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return s.armed
}

type schedulingHeap []*Scheduling

// Len returns the number of armed requests.
func (h schedulingHeap) Len() int {
	return len(h)
}

// Less determines the firing order between two requests. Submission order
// breaks ties between equal timestamps.
func (h schedulingHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}

	return h[i].seq < h[j].seq
}

// Swap changes the position of two requests in the heap.
func (h schedulingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds a request to the heap.
func (h *schedulingHeap) Push(x interface{}) {
	s := x.(*Scheduling)
	s.index = len(*h)
	*h = append(*h, s)
}

// Pop removes and returns the next request to fire.
func (h *schedulingHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[0 : n-1]

	return s
}
