// Package controller configures how an L1 controller, like encoderd,
// registers itself: with an MQTT broker, direct link listeners, or both.
package controller

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm"
	"github.com/robotalks/encoder.go/pkg/l1/comm/direct"
	"github.com/robotalks/encoder.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/encoder.go/pkg/l1/env"
)

// Errors of incomplete configurations.
var (
	ErrNoController = errors.New("controller type and id must be specified")
	ErrNoRegistrar  = errors.New("at least one registrar is required")
)

// Config provides common options to setup an env for L1 controllers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL is the broker to register with, empty to disable,
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string

	// ListenURLs accept direct links from connectors,
	// e.g. tcp://:7410 or ws://:7411/l1
	ListenURLs []string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/robo/",
}

func init() {
	if val, ok := os.LookupEnv("ENCODER_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ENCODER_LISTEN"); val != "" {
		defaultConfig.ListenURLs = splitURLs(val)
	}
	defaultConfig.Info.Ref.ID = env.MachineID()
}

// urlList is a repeatable flag of comma separated URLs.
type urlList struct {
	urls *[]string
}

func (l urlList) String() string {
	if l.urls == nil {
		return ""
	}
	return strings.Join(*l.urls, ",")
}

func (l urlList) Set(val string) error {
	*l.urls = append(*l.urls, splitURLs(val)...)
	return nil
}

func splitURLs(val string) (urls []string) {
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			urls = append(urls, item)
		}
	}
	return
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID, defaults to the machine ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.Var(urlList{&defaultConfig.ListenURLs}, "listen", "Accept direct links on tcp://host:port or ws://host:port/path, repeatable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetControllerType should be called in init with basic info about the
// controller. The type is fixed by the binary, only the ID is a flag.
func SetControllerType(typ string, meta l1.ControllerMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// SetLabel adds a label announced with the controller.
func (c *Config) SetLabel(key, val string) {
	labels := make(map[string]string, len(c.Info.Meta.Labels)+1)
	for k, v := range c.Info.Meta.Labels {
		labels[k] = v
	}
	labels[key] = val
	c.Info.Meta.Labels = labels
}

// Env is the env for L1 controllers.
type Env struct {
	Config *Config
	// RegistryURLs lists where the controller is reachable.
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates the registrars in config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, ErrNoController
	}
	if c.MQTTBrokerURL == "" && len(c.ListenURLs) == 0 {
		return nil, ErrNoRegistrar
	}
	e := &Env{Config: c, Registrar: &comm.RegistrarMux{}}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("registrar %s: %w", c.MQTTBrokerURL, err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	var servers []*direct.Server
	for _, u := range c.ListenURLs {
		server, err := direct.NewServer(u)
		if err != nil {
			for _, s := range servers {
				s.Close()
			}
			return nil, fmt.Errorf("listen %s: %w", u, err)
		}
		servers = append(servers, server)
		e.Registrar.Add(server)
		e.RegistryURLs = append(e.RegistryURLs, u)
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds the registrars and replies commands nobody handled.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar, &comm.UnsupportedCommands{})
}
