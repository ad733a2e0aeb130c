package sensor

import "math"

// FullTurn is one revolution in radians.
const FullTurn = 2 * math.Pi

// Angle is a shaft angle in radians. It's not normalized, so it can hold a
// continuous multi-turn position.
type Angle float64

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return Angle(d * math.Pi / 180.0)
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Turns splits the angle into completed revolutions and the single-turn
// remainder in [0, 2π).
func (a Angle) Turns() (int64, Angle) {
	turns := math.Floor(float64(a) / FullTurn)
	rem := float64(a) - turns*FullTurn
	if rem >= FullTurn {
		// float rounding right below a full turn.
		rem, turns = 0, turns+1
	}
	return int64(turns), Angle(rem)
}

// SingleTurn returns the angle normalized to [0, 2π).
func (a Angle) SingleTurn() Angle {
	_, rem := a.Turns()
	return rem
}

// Signed returns the angle normalized to (-π, π].
func (a Angle) Signed() Angle {
	r := float64(a.SingleTurn())
	if r > math.Pi {
		r -= FullTurn
	}
	return Angle(r)
}
