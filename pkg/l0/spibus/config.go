package spibus

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Config is the bus configuration of a device. It's fixed once the
// transport is open.
type Config struct {
	// Mode is the clock polarity and phase, one of spi.Mode0 .. spi.Mode3.
	Mode spi.Mode
	// Frequency is the clock rate.
	Frequency physic.Frequency
	// WordBits is the size of a command/response word, 8 or 16.
	WordBits int
}

// DefaultFrequency is the clock rate used when Config.Frequency is not set.
const DefaultFrequency = physic.MegaHertz

// Validate checks the config.
func (c Config) Validate() error {
	if c.WordBits != 8 && c.WordBits != 16 {
		return &WordSizeError{Bits: c.WordBits}
	}
	if c.Mode&^spi.Mode3 != 0 {
		return fmt.Errorf("invalid spi mode %#x", int(c.Mode))
	}
	if c.Frequency < 0 {
		return fmt.Errorf("invalid clock frequency %s", c.Frequency)
	}
	return nil
}

// WordBytes returns the number of bytes in a word.
func (c Config) WordBytes() int {
	return c.WordBits / 8
}

// WordMask returns the mask of valid bits in a word.
func (c Config) WordMask() uint16 {
	return uint16(0xffff >> uint(16-c.WordBits))
}
