package sim

import "log"

// Angle is an angular position or offset in degrees.
type Angle float64

// Engine cycle lengths in degrees.
const (
	TwoStrokeCycle  Angle = 360
	FourStrokeCycle Angle = 720
)

// WrapAngle folds an angle into [0, cycle).
func WrapAngle(a, cycle Angle) Angle {
	if cycle <= 0 {
		log.Panic("cycle length must be positive")
	}

	for a < 0 {
		a += cycle
	}

	for a >= cycle {
		a -= cycle
	}

	return a
}

// IsPhaseInRange reports whether phase lies within the half-open window
// [current, next) on the circular angular domain. The window may cross the
// cycle boundary, in which case next is smaller than current.
func IsPhaseInRange(phase, current, next Angle) bool {
	afterCurrent := phase >= current
	beforeNext := phase < next

	if next > current {
		return afterCurrent && beforeNext
	}

	return afterCurrent || beforeNext
}
