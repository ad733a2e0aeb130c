package magspi

import (
	"fmt"
	"math"
)

// RegisterLayout describes the command and response words of a sensor.
// Bit positions count from the least significant bit of the word.
type RegisterLayout struct {
	// AngleRegister is the address of the angle register, placed in the low
	// bits of the command word.
	AngleRegister uint16 `yaml:"angle_register"`
	// Resolution is the number of bits of angle data.
	Resolution int `yaml:"resolution"`
	// DataStartBit is the position of the most significant data bit in the
	// response word.
	DataStartBit int `yaml:"data_start_bit"`
	// RWBit is set in the command word for reads, 0 if not used.
	RWBit int `yaml:"rw_bit"`
	// ParityBit holds the even parity bit of command and response words,
	// 0 if not used.
	ParityBit int `yaml:"parity_bit"`
	// Pipelined indicates the response to a command arrives in the next
	// frame, so a read is a command frame followed by a NOP frame.
	Pipelined bool `yaml:"pipelined"`
}

// DefaultAngleRegister is the angle register used when none is specified.
const DefaultAngleRegister uint16 = 0x3FFF

// NOP is the command word clocked out to fetch a pipelined response.
const NOP uint16 = 0x0000

// EvenParity folds all bits of v into one: the result is 1 when v has an odd
// number of set bits, so setting it as parity bit makes the count even.
func EvenParity(v uint16) uint16 {
	v ^= v >> 8
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v & 1
}

// Validate checks the layout against the word size.
func (l RegisterLayout) Validate(wordBits int) error {
	if l.Resolution < 1 || l.Resolution > wordBits {
		return &LayoutError{Field: "resolution", Reason: fmt.Sprintf("%d out of range [1, %d]", l.Resolution, wordBits)}
	}
	if l.DataStartBit < l.Resolution-1 || l.DataStartBit >= wordBits {
		return &LayoutError{Field: "data_start_bit", Reason: fmt.Sprintf("%d out of range [%d, %d]", l.DataStartBit, l.Resolution-1, wordBits-1)}
	}
	if l.RWBit < 0 || l.RWBit >= wordBits {
		return &LayoutError{Field: "rw_bit", Reason: fmt.Sprintf("%d out of range", l.RWBit)}
	}
	if l.ParityBit < 0 || l.ParityBit >= wordBits {
		return &LayoutError{Field: "parity_bit", Reason: fmt.Sprintf("%d out of range", l.ParityBit)}
	}
	if l.ParityBit > 0 && l.ParityBit == l.RWBit {
		return &LayoutError{Field: "parity_bit", Reason: "same as rw_bit"}
	}
	return nil
}

// CountsPerRevolution is the number of raw counts in one turn.
func (l RegisterLayout) CountsPerRevolution() int {
	return 1 << uint(l.Resolution)
}

// DataMask masks the raw count once shifted to the low bits.
func (l RegisterLayout) DataMask() uint16 {
	return uint16(0xffff >> uint(16-l.Resolution))
}

func (l RegisterLayout) dataShift() uint {
	return uint(1 + l.DataStartBit - l.Resolution)
}

// Command builds the command word reading the angle register.
func (l RegisterLayout) Command() uint16 {
	cmd := l.AngleRegister
	if l.RWBit > 0 {
		cmd |= 1 << uint(l.RWBit)
	}
	if l.ParityBit > 0 {
		cmd &^= 1 << uint(l.ParityBit)
		cmd |= EvenParity(cmd) << uint(l.ParityBit)
	}
	return cmd
}

// Decode extracts the raw count from a response frame. ok is false when the
// layout has a parity bit and the frame fails the check; the count is still
// extracted.
func (l RegisterLayout) Decode(frame uint16) (raw uint16, ok bool) {
	ok = l.ParityBit == 0 || EvenParity(frame) == 0
	raw = (frame >> l.dataShift()) & l.DataMask()
	return
}

// Encode builds the response frame a sensor sends for the raw count.
func (l RegisterLayout) Encode(raw uint16) uint16 {
	frame := (raw & l.DataMask()) << l.dataShift()
	if l.ParityBit > 0 {
		frame |= EvenParity(frame) << uint(l.ParityBit)
	}
	return frame
}

// Radians converts a raw count into a single-turn angle in [0, 2π).
func (l RegisterLayout) Radians(count uint16) float64 {
	return 2 * math.Pi * float64(count&l.DataMask()) / float64(l.CountsPerRevolution())
}
