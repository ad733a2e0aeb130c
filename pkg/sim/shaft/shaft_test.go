package shaft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShaftEstimate(t *testing.T) {
	testCases := []struct {
		name   string
		from   float64
		speed  float64
		accel  float64
		after  time.Duration
		expect float64
	}{
		{
			name:   "no accel",
			speed:  1,
			after:  time.Second,
			expect: 1,
		},
		{
			name:   "no accel reverse",
			speed:  -1,
			after:  time.Second,
			expect: -1,
		},
		{
			name:   "before accel ends",
			speed:  2,
			accel:  1,
			after:  time.Second,
			expect: 0.5,
		},
		{
			name:   "at accel ends",
			speed:  2,
			accel:  1,
			after:  2 * time.Second,
			expect: 2,
		},
		{
			name:   "after accel ends",
			speed:  2,
			accel:  1,
			after:  3 * time.Second,
			expect: 4,
		},
		{
			name:   "reduce speed before accel ends",
			from:   2,
			speed:  0,
			accel:  1,
			after:  time.Second,
			expect: 1.5,
		},
		{
			name:   "reduce speed at accel ends",
			from:   2,
			speed:  0,
			accel:  1,
			after:  2 * time.Second,
			expect: 2,
		},
		{
			name:   "reduce speed after accel ends",
			from:   2,
			speed:  0,
			accel:  1,
			after:  3 * time.Second,
			expect: 2,
		},
		{
			name:   "reverse through zero",
			from:   1,
			speed:  -1,
			accel:  1,
			after:  3 * time.Second,
			expect: -1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Unix(1000, 0)
			s := New(start)
			s.Drive(start, tc.from, 0)
			s.Drive(start, tc.speed, tc.accel)
			require.InDelta(t, tc.expect, s.Position(start.Add(tc.after)).Radians(), 1e-9)
			if tc.after >= 2*time.Second {
				require.Equal(t, tc.speed, s.Speed(start.Add(tc.after)))
			}
		})
	}
}

func TestShaftIncremental(t *testing.T) {
	start := time.Unix(1000, 0)
	s := New(start)
	s.Drive(start, 2, 1)
	now := start
	for i := 0; i < 30; i++ {
		now = now.Add(100 * time.Millisecond)
		s.Position(now)
	}
	require.InDelta(t, 4, s.Position(now).Radians(), 1e-9)
	// time going backwards doesn't move the shaft.
	require.InDelta(t, 4, s.Position(start).Radians(), 1e-9)
}

func TestShaftPlace(t *testing.T) {
	start := time.Unix(1000, 0)
	s := New(start)
	s.Drive(start, 1, 0)
	s.Place(start.Add(time.Second), -3)
	require.InDelta(t, -2, s.Position(start.Add(2*time.Second)).Radians(), 1e-9)
}
