package magspi

import (
	"math"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/l0/spibus"
	"github.com/robotalks/encoder.go/pkg/sensor"
)

// Stats counts reads and tolerated faults.
type Stats struct {
	Reads           uint64
	ParityErrors    uint64
	TransportErrors uint64
}

// State is a snapshot of the tracker.
type State struct {
	RawCount   uint16
	ZeroOffset uint16
	Rotations  int64
	Angle      float64
	Velocity   float64
	Stats      Stats
}

// Tracker reads a magnetic encoder and tracks the continuous shaft angle.
// It must be initialized with Init before use and is not safe for
// concurrent use.
type Tracker struct {
	Config Config
	// CS is the chip select line, nil if the port manages it.
	CS spibus.ChipSelect
	// Bus is shared with other devices on the port, optional.
	Bus *spibus.Bus
	// Clock defaults to a sensor.MonotonicClock.
	Clock sensor.Clock

	transport *spibus.Transport
	command   uint16

	rawCount   uint16
	zeroOffset uint16

	// multi-turn tracking.
	rotations int64
	anglePrev float64
	angle     float64

	// velocity tracking.
	velAnglePrev float64
	velTimestamp int64
	velocity     float64

	stats Stats
}

var _ sensor.Sensor = (*Tracker)(nil)

// New creates a Tracker for an AS5147 compatible sensor with the given
// resolution. register 0 selects DefaultAngleRegister.
func New(cs spibus.ChipSelect, resolution int, register uint16) *Tracker {
	return NewWithConfig(Custom(resolution, register), cs)
}

// NewWithConfig creates a Tracker from a configuration, usually a preset.
func NewWithConfig(conf Config, cs spibus.ChipSelect) *Tracker {
	return &Tracker{Config: conf, CS: cs}
}

// Init binds the tracker to a port, configures the bus and sets the
// current position as zero.
func (t *Tracker) Init(port spi.Port) error {
	if err := t.Config.Validate(); err != nil {
		return err
	}
	if t.Clock == nil {
		t.Clock = sensor.NewMonotonicClock()
	}
	tr := spibus.New(port, t.CS, t.Config.Bus)
	tr.Bus = t.Bus
	if err := tr.Open(); err != nil {
		return err
	}
	t.transport, t.command = tr, t.Config.Layout.Command()

	raw, err := t.RawCount()
	if err != nil {
		tr.Close()
		t.transport = nil
		return err
	}
	t.zeroOffset = raw
	t.rotations, t.anglePrev, t.angle = 0, 0, 0
	t.velAnglePrev, t.velTimestamp, t.velocity = 0, t.Clock.Micros(), 0
	glog.V(1).Infof("magspi: initialized, cmd=%#04x zero=%d", t.command, raw)
	return nil
}

// Close releases the bus.
func (t *Tracker) Close() error {
	if t.transport == nil {
		return nil
	}
	return t.transport.Close()
}

// RawCount reads the angle register and returns the raw count.
// Parity mismatches are counted and the decoded count is used, unless the
// tracker is strict, in which case the error is reported and the previous
// count is returned.
func (t *Tracker) RawCount() (uint16, error) {
	if t.transport == nil {
		return 0, ErrNotInitialized
	}
	frame, err := t.transport.Exchange(t.command)
	if err == nil && t.Config.Layout.Pipelined {
		frame, err = t.transport.Exchange(NOP)
	}
	if err != nil {
		t.stats.TransportErrors++
		return t.rawCount, err
	}
	t.stats.Reads++
	raw, ok := t.Config.Layout.Decode(frame)
	if !ok {
		t.stats.ParityErrors++
		if t.Config.Strict {
			return t.rawCount, &ParityError{Frame: frame}
		}
		glog.V(3).Infof("magspi: parity mismatch in %#04x tolerated", frame)
	}
	t.rawCount = raw
	return raw, nil
}

// singleTurn converts a raw count into the angle relative to zero.
func (t *Tracker) singleTurn(raw uint16) float64 {
	return t.Config.Layout.Radians(raw - t.zeroOffset)
}

// unwrap accumulates full rotations when the single-turn angle crosses the
// 0/2π boundary.
func (t *Tracker) unwrap(current float64) float64 {
	switch d := t.anglePrev - current; {
	case d > math.Pi:
		t.rotations++
	case d < -math.Pi:
		t.rotations--
	}
	t.anglePrev = current
	t.angle = float64(t.rotations)*sensor.FullTurn + current
	return t.angle
}

// ReadSensorAngle reads the single-turn angle relative to zero, in
// [0, 2π).
func (t *Tracker) ReadSensorAngle() (float64, error) {
	raw, err := t.RawCount()
	return t.singleTurn(raw), err
}

// ReadAngle reads the continuous angle. On error, the last angle is
// returned.
func (t *Tracker) ReadAngle() (float64, error) {
	raw, err := t.RawCount()
	if err != nil {
		return t.angle, err
	}
	return t.unwrap(t.singleTurn(raw)), nil
}

// ReadVelocity reads the continuous angle and computes the velocity since
// the previous call. 0 is returned if the clock hasn't advanced.
func (t *Tracker) ReadVelocity() (float64, error) {
	angle, err := t.ReadAngle()
	if err != nil {
		return t.velocity, err
	}
	now := t.Clock.Micros()
	dt := float64(now-t.velTimestamp) * 1e-6
	if dt <= 0 {
		return 0, nil
	}
	t.velocity = (angle - t.velAnglePrev) / dt
	t.velAnglePrev, t.velTimestamp = angle, now
	return t.velocity, nil
}

// Zero sets the current position as zero and returns the angle the zero
// moved by, i.e. the continuous angle just before the reset.
func (t *Tracker) Zero() (float64, error) {
	raw, err := t.RawCount()
	if err != nil {
		return 0, err
	}
	delta := t.unwrap(t.singleTurn(raw))
	t.zeroOffset = raw
	t.rotations, t.anglePrev, t.angle = 0, 0, 0
	// keep the velocity reference in the new frame.
	t.velAnglePrev -= delta
	glog.V(1).Infof("magspi: zero set at %d, moved %.6f rad", raw, delta)
	return delta, nil
}

// SetZeroOffset sets the raw count used as zero without reading the sensor.
func (t *Tracker) SetZeroOffset(raw uint16) {
	prev := t.angle
	t.zeroOffset = raw & t.Config.Layout.DataMask()
	t.rotations, t.anglePrev = 0, t.singleTurn(t.rawCount)
	t.angle = t.anglePrev
	t.velAnglePrev += t.angle - prev
}

// State returns a snapshot of the tracker.
func (t *Tracker) State() State {
	return State{
		RawCount:   t.rawCount,
		ZeroOffset: t.zeroOffset,
		Rotations:  t.rotations,
		Angle:      t.angle,
		Velocity:   t.velocity,
		Stats:      t.stats,
	}
}

// SensorAngle returns the single-turn angle relative to zero.
func (t *Tracker) SensorAngle() float64 {
	angle, err := t.ReadSensorAngle()
	t.logError(err)
	return angle
}

// Angle implements sensor.Sensor.
func (t *Tracker) Angle() float64 {
	angle, err := t.ReadAngle()
	t.logError(err)
	return angle
}

// Velocity implements sensor.Sensor.
func (t *Tracker) Velocity() float64 {
	vel, err := t.ReadVelocity()
	t.logError(err)
	return vel
}

// InitAbsoluteZero implements sensor.Sensor.
func (t *Tracker) InitAbsoluteZero() float64 {
	delta, err := t.Zero()
	t.logError(err)
	return delta
}

// InitRelativeZero implements sensor.Sensor. The encoder has no index
// signal, so the relative zero is the current position, same as
// InitAbsoluteZero.
func (t *Tracker) InitRelativeZero() float64 {
	return t.InitAbsoluteZero()
}

// HasAbsoluteZero implements sensor.Sensor.
func (t *Tracker) HasAbsoluteZero() bool {
	return true
}

// NeedsAbsoluteZeroSearch implements sensor.Sensor.
func (t *Tracker) NeedsAbsoluteZeroSearch() bool {
	return false
}

func (t *Tracker) logError(err error) {
	if err == nil {
		return
	}
	if _, ok := err.(*ParityError); ok {
		glog.V(2).Infof("magspi: %v", err)
		return
	}
	glog.Errorf("magspi: %v", err)
}
