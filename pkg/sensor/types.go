package sensor

// Sensor is the generic shaft position sensor used by a control loop.
//
// Methods never fail: a sensor unable to read the shaft returns the last
// value it knows about. Implementations are not safe for concurrent use,
// callers serialise access (typically by polling from one control loop).
type Sensor interface {
	// Angle returns the continuous (multi-turn) shaft angle in radians.
	Angle() float64
	// Velocity returns the angular velocity in rad/s.
	Velocity() float64
	// InitRelativeZero sets the current position as zero and returns the
	// angle (rad) the zero moved by.
	InitRelativeZero() float64
	// InitAbsoluteZero sets the absolute zero position as zero and returns
	// the angle (rad) the zero moved by.
	InitAbsoluteZero() float64
	// HasAbsoluteZero indicates the sensor reports absolute positions.
	HasAbsoluteZero() bool
	// NeedsAbsoluteZeroSearch indicates the sensor must be homed before
	// InitAbsoluteZero is meaningful.
	NeedsAbsoluteZeroSearch() bool
}

// Clock is a monotonic time source with microsecond resolution.
type Clock interface {
	Micros() int64
}

// ClockFunc is the func form of Clock.
type ClockFunc func() int64

// Micros implements Clock.
func (f ClockFunc) Micros() int64 {
	return f()
}
