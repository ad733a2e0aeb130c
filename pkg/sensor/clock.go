package sensor

import "time"

// MonotonicClock counts microseconds since its creation using the monotonic
// reading of time.Time, so wall clock adjustments don't affect it.
type MonotonicClock struct {
	epoch time.Time
}

// NewMonotonicClock creates a MonotonicClock starting at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{epoch: time.Now()}
}

// Micros implements Clock.
func (c *MonotonicClock) Micros() int64 {
	return int64(time.Since(c.epoch) / time.Microsecond)
}
