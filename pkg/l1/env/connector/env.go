// Package connector configures how L2 clients, like robocli, reach an L1
// controller: through an MQTT registry or a direct link.
package connector

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm/direct"
	"github.com/robotalks/encoder.go/pkg/l1/comm/mqtt"
)

// ErrNoController is returned by Connect without a complete reference.
var ErrNoController = errors.New("controller type and id must be specified")

// Config provides common options to setup Connectors.
type Config struct {
	// Ref selects the controller, the ID may be left for discovery.
	Ref l1.ControllerRef

	// RegistryURL is an MQTT broker, mqtt://host:port/topic-prefix/
	// (ssl:// for TLS), or a controller listening on tcp://host:port or
	// ws://host:port/path.
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         l1.ControllerRef{Type: "encoder"},
	RegistryURL: "mqtt://localhost:1883/robo/",
}

func init() {
	if val := os.Getenv("ENCODER_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("ENCODER_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("ENCODER_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// refValue sets a ControllerRef from TYPE/ID, or TYPE alone.
type refValue struct {
	ref *l1.ControllerRef
}

func (v refValue) String() string {
	switch {
	case v.ref == nil:
		return ""
	case v.ref.ID == "":
		return v.ref.Type
	}
	return v.ref.Name()
}

func (v refValue) Set(val string) error {
	ref, err := l1.ParseControllerRef(val)
	if err != nil {
		ref = l1.ControllerRef{Type: val}
	}
	*v.ref = ref
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.Var(refValue{&defaultConfig.Ref}, "controller", "Controller to connect, TYPE/ID or TYPE.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Registry URL: mqtt://, ssl://, tcp:// or ws://.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector by the scheme of RegistryURL.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "ssl":
		return mqtt.NewConnector(c.RegistryURL)
	case direct.SchemeTCP, direct.SchemeWebsocket:
		return direct.NewConnector(c.RegistryURL)
	}
	return nil, fmt.Errorf("unknown registry URL scheme: %q", u.Scheme)
}

// Connect connects to the controller in Ref without discovery.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	if !c.Ref.IsValid() {
		return nil, ErrNoController
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}
