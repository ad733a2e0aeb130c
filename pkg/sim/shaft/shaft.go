// Package shaft simulates a rotating shaft with a magnetic encoder mounted
// on it, so the encoder stack runs without hardware.
package shaft

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/encoder.go/pkg/sensor"
)

// Shaft is a rotating shaft. The speed ramps towards the target speed with
// constant acceleration. It's safe for concurrent use.
type Shaft struct {
	lock sync.Mutex

	position     float64
	currentSpeed float64
	desiredSpeed float64
	accel        float64
	lastTime     time.Time
}

// New creates a still Shaft at position 0.
func New(now time.Time) *Shaft {
	return &Shaft{lastTime: now}
}

// Drive sets the target speed (rad/s). accel (rad/s²) is the magnitude of
// the acceleration, 0 means the speed changes immediately.
func (s *Shaft) Drive(now time.Time, speed, accel float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.estimate(now)
	s.desiredSpeed, s.accel = speed, math.Abs(accel)
	if s.accel == 0 {
		s.currentSpeed = s.desiredSpeed
	}
}

// Place moves the shaft to an absolute position (rad).
func (s *Shaft) Place(now time.Time, position float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.estimate(now)
	s.position = position
}

// Position returns the continuous position (rad) at now.
func (s *Shaft) Position(now time.Time) sensor.Angle {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.estimate(now)
	return sensor.Angle(s.position)
}

// Speed returns the current speed (rad/s) at now.
func (s *Shaft) Speed(now time.Time) float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.estimate(now)
	return s.currentSpeed
}

// estimate advances the state to now. Time going backwards is ignored.
func (s *Shaft) estimate(now time.Time) {
	secs := now.Sub(s.lastTime).Seconds()
	if secs <= 0 {
		return
	}
	s.lastTime = now
	if s.currentSpeed != s.desiredSpeed {
		accel := s.accel
		if s.currentSpeed > s.desiredSpeed {
			accel = -accel
		}
		accelSecs := (s.desiredSpeed - s.currentSpeed) / accel
		if secs < accelSecs {
			s.position += secs*s.currentSpeed + accel*secs*secs/2
			s.currentSpeed += accel * secs
			return
		}
		// acceleration completes, continue at the desired speed.
		s.position += accelSecs*s.currentSpeed + accel*accelSecs*accelSecs/2
		s.currentSpeed = s.desiredSpeed
		secs -= accelSecs
	}
	s.position += secs * s.currentSpeed
}
