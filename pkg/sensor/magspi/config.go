package magspi

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/l0/spibus"
)

// Config is the complete description of a sensor part.
type Config struct {
	Bus    spibus.Config
	Layout RegisterLayout
	// Strict makes reads report parity mismatches as errors instead of
	// using the possibly corrupted count.
	Strict bool
}

// Validate checks the config.
func (c Config) Validate() error {
	if err := c.Bus.Validate(); err != nil {
		return err
	}
	return c.Layout.Validate(c.Bus.WordBits)
}

// AS5147 is the configuration of the ams AS5147/AS5047 family.
func AS5147() Config {
	return Config{
		Bus: spibus.Config{Mode: spi.Mode1, Frequency: physic.MegaHertz, WordBits: 16},
		Layout: RegisterLayout{
			AngleRegister: DefaultAngleRegister,
			Resolution:    14,
			DataStartBit:  13,
			RWBit:         14,
			ParityBit:     15,
			Pipelined:     true,
		},
	}
}

// MA730 is the configuration of the MPS MA730 family.
func MA730() Config {
	return Config{
		Bus: spibus.Config{Mode: spi.Mode0, Frequency: physic.MegaHertz, WordBits: 16},
		Layout: RegisterLayout{
			AngleRegister: 0x0000,
			Resolution:    14,
			DataStartBit:  15,
			Pipelined:     true,
		},
	}
}

// Custom describes an AS5147 compatible part with a different resolution
// and angle register. register 0 selects DefaultAngleRegister.
func Custom(resolution int, register uint16) Config {
	conf := AS5147()
	conf.Layout.Resolution = resolution
	if register == 0 {
		register = DefaultAngleRegister
	}
	conf.Layout.AngleRegister = register
	return conf
}

var presets = map[string]func() Config{
	"as5147": AS5147,
	"ma730":  MA730,
}

// PresetNames lists the names accepted by Preset.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset gets a preset configuration by name.
func Preset(name string) (Config, error) {
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q, expect one of %s", name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// fileConfig is the YAML form of Config. Fields absent in the file keep
// the values of the preset it's based on.
type fileConfig struct {
	Preset   string         `yaml:"preset"`
	Mode     int            `yaml:"mode"`
	ClockHz  int64          `yaml:"clock_hz"`
	WordBits int            `yaml:"word_bits"`
	Layout   RegisterLayout `yaml:"layout"`
	Strict   bool           `yaml:"strict"`
}

// ParseConfig parses a YAML sensor description, e.g.
//
//	preset: as5147
//	clock_hz: 4000000
//	layout:
//	  resolution: 12
func ParseConfig(data []byte) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, err
	}
	var base Config
	if head.Preset != "" {
		var err error
		if base, err = Preset(head.Preset); err != nil {
			return Config{}, err
		}
	}
	fc := fileConfig{
		Mode:     int(base.Bus.Mode),
		ClockHz:  int64(base.Bus.Frequency / physic.Hertz),
		WordBits: base.Bus.WordBits,
		Layout:   base.Layout,
		Strict:   base.Strict,
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, err
	}
	conf := Config{
		Bus: spibus.Config{
			Mode:      spi.Mode(fc.Mode),
			Frequency: physic.Frequency(fc.ClockHz) * physic.Hertz,
			WordBits:  fc.WordBits,
		},
		Layout: fc.Layout,
		Strict: fc.Strict,
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// LoadConfig reads a YAML sensor description from a file.
func LoadConfig(fn string) (Config, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return Config{}, err
	}
	conf, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", fn, err)
	}
	return conf, nil
}
