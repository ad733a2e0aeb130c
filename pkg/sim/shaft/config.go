package shaft

import (
	"flag"
	"math/rand"
	"time"

	"github.com/robotalks/encoder.go/pkg/sensor"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

// Config defines the simulated shaft and encoder.
type Config struct {
	// Speed (degrees/s) the shaft starts with.
	Speed float64
	// Accel (degrees/s²) to reach Speed, 0 means immediately.
	Accel float64
	// Offset is the raw count at shaft position 0.
	Offset uint
	// Noise is the probability of a corrupted response frame.
	Noise float64
	// Seed of the noise generator, 0 seeds from time.
	Seed int64
}

// Defaults
const (
	DefaultSpeed float64 = 90
)

var defaultConfig = Config{
	Speed: DefaultSpeed,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.Speed, "shaft-speed", defaultConfig.Speed, "Initial speed (degrees/s) of the simulated shaft.")
	flag.Float64Var(&defaultConfig.Accel, "shaft-accel", defaultConfig.Accel, "Acceleration (degrees/s^2) to the initial speed, 0 means immediately.")
	flag.UintVar(&defaultConfig.Offset, "shaft-offset", defaultConfig.Offset, "Raw count measured at shaft position 0.")
	flag.Float64Var(&defaultConfig.Noise, "shaft-noise", defaultConfig.Noise, "Probability [0, 1] of a bit flip in a response frame.")
	flag.Int64Var(&defaultConfig.Seed, "shaft-seed", defaultConfig.Seed, "Seed of the noise, 0 seeds from time.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewPort creates a moving Shaft and the Port reading it.
func (c *Config) NewPort(layout magspi.RegisterLayout) *Port {
	now := time.Now()
	s := New(now)
	s.Drive(now, sensor.AngleFromDegrees(c.Speed).Radians(), sensor.AngleFromDegrees(c.Accel).Radians())
	p := NewPort(s, layout)
	p.Offset = uint16(c.Offset) & layout.DataMask()
	p.Noise = c.Noise
	if c.Seed != 0 {
		p.Rand = rand.New(rand.NewSource(c.Seed))
	}
	return p
}
