package nexus

import "time"

// Clock supplies monotonic microsecond timestamps for edge events.
// The counter is 32 bits wide and wraps roughly every 71.6 minutes; only
// differences between consecutive values are meaningful.
type Clock interface {
	Micros() uint32
}

// MonotonicClock counts microseconds since it was created using the Go
// runtime's monotonic clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a clock starting at zero now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Micros returns the microseconds elapsed since the clock was created,
// truncated to the wrapping 32-bit counter.
func (c *MonotonicClock) Micros() uint32 {
	return Micros(time.Since(c.start))
}

// Micros converts d to the wrapping 32-bit microsecond counter used by the
// decoder. Kernel edge timestamps (nanoseconds since boot) convert the same way.
func Micros(d time.Duration) uint32 {
	return uint32(int64(d / time.Microsecond))
}
