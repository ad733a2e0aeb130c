package sensor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAngleTurns(t *testing.T) {
	testCases := []struct {
		name  string
		angle Angle
		turns int64
		rem   float64
	}{
		{"zero", 0, 0, 0},
		{"quarter", Angle(math.Pi / 2), 0, math.Pi / 2},
		{"one and half", Angle(3 * math.Pi), 1, math.Pi},
		{"negative quarter", Angle(-math.Pi / 2), -1, 3 * math.Pi / 2},
		{"negative two turns", Angle(-2 * FullTurn), -2, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			turns, rem := tc.angle.Turns()
			require.Equal(t, tc.turns, turns)
			require.InDelta(t, tc.rem, rem.Radians(), 1e-12)
		})
	}
}

func TestAngleConversions(t *testing.T) {
	require.InDelta(t, math.Pi, AngleFromDegrees(180).Radians(), 1e-12)
	require.InDelta(t, 90, Angle(math.Pi/2).Degrees(), 1e-12)
	require.InDelta(t, -math.Pi/2, Angle(3*math.Pi/2).Signed().Radians(), 1e-12)
	require.InDelta(t, math.Pi, Angle(-math.Pi).Signed().Radians(), 1e-12)
	require.InDelta(t, math.Pi/4, Angle(FullTurn*3+math.Pi/4).SingleTurn().Radians(), 1e-9)
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()
	t0 := c.Micros()
	time.Sleep(2 * time.Millisecond)
	t1 := c.Micros()
	require.True(t, t1-t0 >= 2000, "clock advanced %dus", t1-t0)

	var calls int64
	fc := ClockFunc(func() int64 { calls++; return calls * 10 })
	require.Equal(t, int64(10), fc.Micros())
	require.Equal(t, int64(20), fc.Micros())
}
