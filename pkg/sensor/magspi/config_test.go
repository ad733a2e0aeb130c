package magspi

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/l0/spibus"
)

func TestPresets(t *testing.T) {
	require.Equal(t, []string{"as5147", "ma730"}, PresetNames())
	for _, name := range PresetNames() {
		conf, err := Preset(name)
		require.NoError(t, err)
		require.NoError(t, conf.Validate())
	}
	conf, err := Preset("AS5147")
	require.NoError(t, err)
	require.Equal(t, AS5147(), conf)
	require.Equal(t, spi.Mode1, conf.Bus.Mode)
	require.Equal(t, physic.MegaHertz, conf.Bus.Frequency)

	_, err = Preset("as5600")
	require.EqualError(t, err, `unknown preset "as5600", expect one of as5147, ma730`)
}

func TestPresetsAreCopies(t *testing.T) {
	conf := AS5147()
	conf.Layout.Resolution = 12
	require.Equal(t, 14, AS5147().Layout.Resolution)
}

func TestCustom(t *testing.T) {
	conf := Custom(12, 0)
	require.Equal(t, DefaultAngleRegister, conf.Layout.AngleRegister)
	require.Equal(t, 12, conf.Layout.Resolution)
	require.Equal(t, 13, conf.Layout.DataStartBit)
	require.NoError(t, conf.Validate())

	conf = Custom(14, 0x3ffe)
	require.Equal(t, uint16(0x3ffe), conf.Layout.AngleRegister)
}

func TestParseConfig(t *testing.T) {
	testCases := []struct {
		name   string
		yaml   string
		expect func() Config
		err    string
	}{
		{
			name:   "preset only",
			yaml:   "preset: ma730\n",
			expect: MA730,
		},
		{
			name: "preset override",
			yaml: "preset: as5147\nclock_hz: 4000000\nstrict: true\nlayout:\n  resolution: 12\n",
			expect: func() Config {
				conf := AS5147()
				conf.Bus.Frequency = 4 * physic.MegaHertz
				conf.Layout.Resolution = 12
				conf.Strict = true
				return conf
			},
		},
		{
			name: "custom",
			yaml: "mode: 3\nclock_hz: 500000\nword_bits: 16\nlayout:\n  angle_register: 0x3fff\n  resolution: 10\n  data_start_bit: 11\n  parity_bit: 15\n",
			expect: func() Config {
				return Config{
					Bus: spibusConfig(spi.Mode3, 500*physic.KiloHertz, 16),
					Layout: RegisterLayout{
						AngleRegister: 0x3fff,
						Resolution:    10,
						DataStartBit:  11,
						ParityBit:     15,
					},
				}
			},
		},
		{name: "unknown preset", yaml: "preset: foo\n", err: `unknown preset "foo"`},
		{name: "invalid layout", yaml: "preset: as5147\nlayout:\n  resolution: 20\n", err: "invalid layout resolution"},
		{name: "invalid word", yaml: "preset: as5147\nword_bits: 32\n", err: "unsupported word size 32 bits"},
		{name: "bad yaml", yaml: "preset: [", err: "yaml"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf, err := ParseConfig([]byte(tc.yaml))
			if tc.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect(), conf)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "magspi")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "sensor.yaml")
	require.NoError(t, ioutil.WriteFile(fn, []byte("preset: ma730\nlayout:\n  pipelined: false\n"), 0644))
	conf, err := LoadConfig(fn)
	require.NoError(t, err)
	expect := MA730()
	expect.Layout.Pipelined = false
	require.Equal(t, expect, conf)

	require.NoError(t, ioutil.WriteFile(fn, []byte("layout:\n  resolution: 14\n"), 0644))
	_, err = LoadConfig(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), fn)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.True(t, os.IsNotExist(err))
}

func spibusConfig(mode spi.Mode, freq physic.Frequency, bits int) spibus.Config {
	return spibus.Config{Mode: mode, Frequency: freq, WordBits: bits}
}
