package sim

import "log"

// RPM is crankshaft rotational speed in revolutions per minute.
type RPM float64

// Readings outside this range cannot be trusted. A reading below the
// minimum shows up, for instance, on the first edge after a long pause.
const (
	minValidRPM RPM = 1
	maxValidRPM RPM = 30000
)

// IsValid reports whether the reading is inside the trustworthy range.
func (r RPM) IsValid() bool {
	return r >= minValidRPM && r <= maxValidRPM
}

// AngleToTime converts an angular offset to the time the crankshaft takes
// to sweep it at the given speed. One RPM sweeps 6 degrees per second, so
// the result is offset / (6 * rpm). The conversion assumes the speed stays
// constant over the offset. It is only accurate over short offsets.
func AngleToTime(offset Angle, r RPM) VTimeInSec {
	if !r.IsValid() {
		log.Panic("angle-to-time conversion requires a valid RPM")
	}

	return VTimeInSec(float64(offset) / (6.0 * float64(r)))
}
