package encoder

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robotalks/encoder.go/pkg/l1"
	env "github.com/robotalks/encoder.go/pkg/l1/env/controller"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

// Config defines the configurations for the controller.
type Config struct {
	// Preset names the sensor, see magspi.PresetNames.
	Preset string
	// LayoutFile is a YAML sensor description overriding Preset.
	LayoutFile string
	// Strict rejects frames failing the parity check.
	Strict bool
	// SPIPort is the SPI port name, empty for the first available.
	SPIPort string
	// ChipSelect is the GPIO pin driving CS, empty if the port does it.
	ChipSelect string
	// SampleInterval is the loop interval the encoder is sampled at.
	SampleInterval time.Duration
	// PublishInterval is the minimum interval between status events.
	PublishInterval time.Duration
}

// ControllerType is the L1 controller type of the encoder.
const ControllerType = "encoder"

// Defaults
const (
	DefaultPreset          = "as5147"
	DefaultSampleInterval  = 10 * time.Millisecond
	DefaultPublishInterval = 100 * time.Millisecond
)

var defaultConfig = Config{
	Preset:          DefaultPreset,
	SampleInterval:  DefaultSampleInterval,
	PublishInterval: DefaultPublishInterval,
}

func init() {
	if val := os.Getenv("ENCODER_PRESET"); val != "" {
		defaultConfig.Preset = val
	}
	if val := os.Getenv("ENCODER_LAYOUT"); val != "" {
		defaultConfig.LayoutFile = val
	}
	if val := os.Getenv("ENCODER_SPI_PORT"); val != "" {
		defaultConfig.SPIPort = val
	}
	if val := os.Getenv("ENCODER_CS_PIN"); val != "" {
		defaultConfig.ChipSelect = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Preset, "preset", defaultConfig.Preset, "Sensor preset: as5147, ma730.")
	flag.StringVar(&defaultConfig.LayoutFile, "layout", defaultConfig.LayoutFile, "YAML file describing the sensor, overrides -preset.")
	flag.BoolVar(&defaultConfig.Strict, "strict", defaultConfig.Strict, "Reject response frames failing the parity check.")
	flag.StringVar(&defaultConfig.SPIPort, "spi", defaultConfig.SPIPort, "SPI port name, empty for the first available.")
	flag.StringVar(&defaultConfig.ChipSelect, "cs", defaultConfig.ChipSelect, "GPIO pin used as chip select, empty if driven by the SPI port.")
	flag.DurationVar(&defaultConfig.SampleInterval, "sample-interval", defaultConfig.SampleInterval, "Interval to sample the encoder.")
	flag.DurationVar(&defaultConfig.PublishInterval, "publish-interval", defaultConfig.PublishInterval, "Minimum interval between status events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SetControllerType registers the encoder as the L1 controller type.
func SetControllerType(description string) {
	env.SetControllerType(ControllerType, l1.ControllerMeta{Description: description})
}

// SensorConfig resolves the sensor configuration from the layout file or
// the preset.
func (c *Config) SensorConfig() (conf magspi.Config, err error) {
	if c.LayoutFile != "" {
		conf, err = magspi.LoadConfig(c.LayoutFile)
	} else {
		conf, err = magspi.Preset(c.Preset)
	}
	if err != nil {
		return
	}
	conf.Strict = conf.Strict || c.Strict
	return
}

// SetLabels describes the sensor in the controller meta announced by envConf.
func (c *Config) SetLabels(envConf *env.Config) error {
	conf, err := c.SensorConfig()
	if err != nil {
		return err
	}
	if c.LayoutFile != "" {
		envConf.SetLabel("layout", filepath.Base(c.LayoutFile))
	} else {
		envConf.SetLabel("preset", c.Preset)
	}
	envConf.SetLabel("resolution", strconv.Itoa(conf.Layout.Resolution))
	envConf.SetLabel("strict", strconv.FormatBool(conf.Strict))
	return nil
}

// NewController creates a controller using the config.
func (c *Config) NewController(e *env.Env) (*Controller, error) {
	conf, err := c.SensorConfig()
	if err != nil {
		return nil, err
	}
	ctl := NewController(e, magspi.NewWithConfig(conf, nil))
	ctl.PublishInterval = c.PublishInterval
	return ctl, nil
}
