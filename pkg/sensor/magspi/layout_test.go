package magspi

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvenParity(t *testing.T) {
	for v := 0; v <= 0xffff; v++ {
		w := uint16(v)
		require.Equal(t, uint16(bits.OnesCount16(w)&1), EvenParity(w), "word %#04x", w)
		// set the parity bit over the lower 15 bits: the word becomes even.
		adjusted := w&0x7fff | EvenParity(w&0x7fff)<<15
		require.Zero(t, bits.OnesCount16(adjusted)&1, "word %#04x", adjusted)
		require.Zero(t, EvenParity(adjusted))
	}
}

func TestCommand(t *testing.T) {
	testCases := []struct {
		name   string
		layout RegisterLayout
		expect uint16
	}{
		{"as5147", AS5147().Layout, 0xffff},
		{"ma730", MA730().Layout, 0x0000},
		{"as5147 diag register", RegisterLayout{AngleRegister: 0x3ffc, Resolution: 14, DataStartBit: 13, RWBit: 14, ParityBit: 15}, 0xfffc},
		{"register with stale parity bit", RegisterLayout{AngleRegister: 0x8001, Resolution: 14, DataStartBit: 13, RWBit: 14, ParityBit: 15}, 0x4001},
		{"no rw bit", RegisterLayout{AngleRegister: 0x0003, Resolution: 10, DataStartBit: 9, ParityBit: 15}, 0x0003},
		{"8 bit word", RegisterLayout{AngleRegister: 0x01, Resolution: 6, DataStartBit: 5, RWBit: 6, ParityBit: 7}, 0x41},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := tc.layout.Command()
			require.Equal(t, tc.expect, cmd)
			if tc.layout.ParityBit > 0 {
				require.Zero(t, EvenParity(cmd))
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	layouts := map[string]RegisterLayout{
		"as5147": AS5147().Layout,
		"ma730":  MA730().Layout,
		"10 bit": {Resolution: 10, DataStartBit: 11, ParityBit: 15},
		"16 bit": {Resolution: 16, DataStartBit: 15},
	}
	for name, layout := range layouts {
		t.Run(name, func(t *testing.T) {
			for raw := 0; raw < layout.CountsPerRevolution(); raw++ {
				frame := layout.Encode(uint16(raw))
				decoded, ok := layout.Decode(frame)
				require.True(t, ok, "raw %d frame %#04x", raw, frame)
				require.Equal(t, uint16(raw), decoded)
			}
		})
	}
}

func TestDecodeFrames(t *testing.T) {
	as5147, ma730 := AS5147().Layout, MA730().Layout
	raw, ok := as5147.Decode(0x8001)
	require.True(t, ok)
	require.Equal(t, uint16(1), raw)
	// error flag (bit 14) is outside of the data field.
	raw, ok = as5147.Decode(0x4001)
	require.True(t, ok)
	require.Equal(t, uint16(1), raw)
	raw, ok = as5147.Decode(0x0001)
	require.False(t, ok)
	require.Equal(t, uint16(1), raw)
	raw, ok = ma730.Decode(0xffff)
	require.True(t, ok)
	require.Equal(t, uint16(0x3fff), raw)
	raw, ok = ma730.Decode(0x0004)
	require.True(t, ok)
	require.Equal(t, uint16(1), raw)
}

func TestDecodeDetectsBitFlips(t *testing.T) {
	layout := AS5147().Layout
	frame := layout.Encode(0x1234)
	for bit := uint(0); bit < 16; bit++ {
		_, ok := layout.Decode(frame ^ 1<<bit)
		require.False(t, ok, "bit %d", bit)
	}
}

func TestRadians(t *testing.T) {
	layout := AS5147().Layout
	require.Equal(t, 0.0, layout.Radians(0))
	require.InDelta(t, 2*math.Pi*(1-1.0/16384), layout.Radians(16383), 1e-12)
	require.True(t, layout.Radians(16383) < 2*math.Pi)
	require.InDelta(t, math.Pi, layout.Radians(8192), 1e-12)
	// counts wrap at a full turn.
	require.Equal(t, layout.Radians(1), layout.Radians(16385))
}

func TestLayoutValidate(t *testing.T) {
	testCases := []struct {
		name   string
		layout RegisterLayout
		word   int
		field  string
	}{
		{"as5147", AS5147().Layout, 16, ""},
		{"ma730", MA730().Layout, 16, ""},
		{"zero resolution", RegisterLayout{}, 16, "resolution"},
		{"resolution larger than word", RegisterLayout{Resolution: 10, DataStartBit: 9}, 8, "resolution"},
		{"data field underflow", RegisterLayout{Resolution: 16, DataStartBit: 13}, 16, "data_start_bit"},
		{"data field overflow", RegisterLayout{Resolution: 14, DataStartBit: 16}, 16, "data_start_bit"},
		{"rw bit overflow", RegisterLayout{Resolution: 14, DataStartBit: 13, RWBit: 16}, 16, "rw_bit"},
		{"parity same as rw", RegisterLayout{Resolution: 14, DataStartBit: 13, RWBit: 15, ParityBit: 15}, 16, "parity_bit"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.Validate(tc.word)
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			require.IsType(t, &LayoutError{}, err)
			require.Equal(t, tc.field, err.(*LayoutError).Field)
		})
	}
}
