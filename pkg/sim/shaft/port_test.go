package shaft

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/sensor"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

type fakeTime struct {
	now time.Time
}

func (t *fakeTime) Now() time.Time { return t.now }

func (t *fakeTime) Micros() int64 { return t.now.UnixNano() / 1000 }

func newSimTracker(t *testing.T, conf magspi.Config, speed float64) (*magspi.Tracker, *Port, *fakeTime) {
	clock := &fakeTime{now: time.Unix(1000, 0)}
	s := New(clock.now)
	s.Drive(clock.now, speed, 0)
	port := NewPort(s, conf.Layout)
	port.Now = clock.Now
	tr := magspi.NewWithConfig(conf, nil)
	tr.Clock = clock
	require.NoError(t, tr.Init(port))
	return tr, port, clock
}

func TestPortFrames(t *testing.T) {
	clock := &fakeTime{now: time.Unix(1000, 0)}
	s := New(clock.now)
	s.Place(clock.now, math.Pi/2)
	layout := magspi.AS5147().Layout
	port := NewPort(s, layout)
	port.Now = clock.Now
	require.Equal(t, uint16(4096), port.RawCount())

	c, err := port.Connect(physic.MegaHertz, spi.Mode1, 8)
	require.NoError(t, err)
	r := make([]byte, 2)
	// pipelined: the command gets the latched NOP register.
	require.NoError(t, c.Tx([]byte{0xff, 0xff}, r))
	require.Equal(t, []byte{0, 0}, r)
	require.NoError(t, c.Tx([]byte{0, 0}, r))
	frame := uint16(r[0])<<8 | uint16(r[1])
	require.Equal(t, layout.Encode(4096), frame)

	port.Offset = 100
	require.Equal(t, uint16(4196), port.RawCount())
	s.Place(clock.now, -1e-9)
	require.Equal(t, uint16(99), port.RawCount())

	_, err = port.Connect(physic.MegaHertz, spi.Mode1, 16)
	require.Error(t, err)
	require.Error(t, c.Tx([]byte{0}, r))
	total, flipped := port.Frames()
	require.Equal(t, uint64(2), total)
	require.Equal(t, uint64(0), flipped)
}

func TestTrackerFollowsShaft(t *testing.T) {
	for _, conf := range []magspi.Config{magspi.AS5147(), magspi.MA730()} {
		tr, port, clock := newSimTracker(t, conf, 2*math.Pi)
		step := 7 * time.Millisecond
		for i := 0; i < 1050; i++ {
			clock.now = clock.now.Add(step)
			angle := tr.Angle()
			expect := port.Shaft.Position(clock.now).Radians()
			require.InDelta(t, expect, angle, sensor.FullTurn/16384*1.01)
		}
		require.Equal(t, int64(7), tr.State().Rotations)
		clock.now = clock.now.Add(step)
		require.InDelta(t, 2*math.Pi, tr.Velocity(), 0.5)
		require.Equal(t, uint64(0), tr.State().Stats.ParityErrors)
	}
}

func TestTrackerReverse(t *testing.T) {
	tr, port, clock := newSimTracker(t, magspi.AS5147(), -10)
	for i := 0; i < 200; i++ {
		clock.now = clock.now.Add(5 * time.Millisecond)
		require.InDelta(t, port.Shaft.Position(clock.now).Radians(), tr.Angle(), 1e-3)
	}
	require.Equal(t, int64(-2), tr.State().Rotations)
}

func TestNoiseDetected(t *testing.T) {
	conf := magspi.AS5147()
	conf.Strict = true
	tr, port, clock := newSimTracker(t, conf, 1)
	port.Noise, port.Rand = 0.2, rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		clock.now = clock.now.Add(time.Millisecond)
		tr.Angle()
	}
	_, flipped := port.Frames()
	require.True(t, flipped > 0)
	// only the NOP responses carry the angle, flips in the others are lost.
	stats := tr.State().Stats
	require.True(t, stats.ParityErrors > 0 && stats.ParityErrors <= flipped)
	// rejected frames never move the angle off the shaft.
	require.InDelta(t, port.Shaft.Position(clock.now).Radians(), tr.State().Angle, 0.05)
}
