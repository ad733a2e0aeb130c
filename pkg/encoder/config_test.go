package encoder

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	env "github.com/robotalks/encoder.go/pkg/l1/env/controller"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

func TestSensorConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "encoder")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	layoutFile := filepath.Join(dir, "sensor.yaml")
	require.NoError(t, ioutil.WriteFile(layoutFile, []byte("preset: ma730\nlayout:\n  resolution: 12\n"), 0644))

	testCases := []struct {
		name   string
		conf   Config
		expect func() magspi.Config
		err    bool
	}{
		{
			name:   "default",
			conf:   Config{Preset: DefaultPreset},
			expect: magspi.AS5147,
		},
		{
			name: "strict",
			conf: Config{Preset: "MA730", Strict: true},
			expect: func() magspi.Config {
				conf := magspi.MA730()
				conf.Strict = true
				return conf
			},
		},
		{
			name: "layout file",
			conf: Config{Preset: "unknown", LayoutFile: layoutFile},
			expect: func() magspi.Config {
				conf := magspi.MA730()
				conf.Layout.Resolution = 12
				return conf
			},
		},
		{
			name: "unknown preset",
			conf: Config{Preset: "as5600"},
			err:  true,
		},
		{
			name: "missing layout file",
			conf: Config{LayoutFile: filepath.Join(dir, "missing.yaml")},
			err:  true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf, err := tc.conf.SensorConfig()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect(), conf)
		})
	}
}

func TestNewControllerFromConfig(t *testing.T) {
	conf := NewConfig()
	conf.Preset = "ma730"
	ctl, err := conf.NewController(nil)
	require.NoError(t, err)
	require.Equal(t, magspi.MA730(), ctl.Tracker.Config)
	require.Equal(t, DefaultPublishInterval, ctl.PublishInterval)
	require.Nil(t, ctl.Registrar)

	conf.Preset = "none"
	_, err = conf.NewController(nil)
	require.Error(t, err)
}

func TestSetLabels(t *testing.T) {
	conf := NewConfig()
	conf.Preset = "ma730"
	conf.Strict = true
	envConf := &env.Config{}
	require.NoError(t, conf.SetLabels(envConf))
	require.Equal(t, map[string]string{
		"preset":     "ma730",
		"resolution": "14",
		"strict":     "true",
	}, envConf.Info.Meta.Labels)

	conf.Preset = "none"
	require.Error(t, conf.SetLabels(&env.Config{}))
}
