package main

import (
	"flag"
	"log"

	"periph.io/x/host/v3"

	"github.com/robotalks/encoder.go/pkg/encoder"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	env "github.com/robotalks/encoder.go/pkg/l1/env/controller"
)

func init() {
	encoder.SetControllerType("Magnetic encoder")
	env.SetupFlags()
	encoder.SetupFlags()
}

func main() {
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatalln(err)
	}
	conf := encoder.NewConfig()
	port, cs, err := conf.OpenHardware()
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()

	envConf := env.NewConfig()
	if err := conf.SetLabels(envConf); err != nil {
		log.Fatalln(err)
	}
	env := envConf.MustNewEnv()
	ctl, err := conf.NewController(env)
	if err != nil {
		log.Fatalln(err)
	}
	if cs != nil {
		ctl.Tracker.CS = cs
	}
	if err := ctl.Init(port); err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	loop.Interval = conf.SampleInterval
	loop.Add(env, ctl).RunOrFail()
}
