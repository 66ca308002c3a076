package sim

import "github.com/rs/xid"

// A Scheduling is a cancelable handle to a time-based request. The handle
// is owned by its caller and reused across re-arming; the executor it was
// last submitted to owns the fields while a request is live. The zero
// value is an unarmed handle.
type Scheduling struct {
	id     string
	when   VTimeInSec
	action Action
	armed  bool

	// heap bookkeeping, maintained by TimerExecutor
	index int
	seq   uint64
}

// ID returns the handle's identifier, assigning one on first use. The
// identifier survives re-arming, so all requests on the same handle share
// it. Like the rest of the handle, it must only be read from a context
// that owns the handle.
func (s *Scheduling) ID() string {
	if s.id == "" {
		s.id = xid.New().String()
	}

	return s.id
}

// An Executor accepts time-based requests: run this action after the given
// timestamp. Submitting on a handle with a live request replaces that
// request. Cancel on a handle with no live request is a no-op.
type Executor interface {
	Submit(s *Scheduling, when VTimeInSec, action Action)
	Cancel(s *Scheduling)
}
