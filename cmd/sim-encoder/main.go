package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/encoder.go/pkg/encoder"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	env "github.com/robotalks/encoder.go/pkg/l1/env/controller"
	"github.com/robotalks/encoder.go/pkg/sim/shaft"
)

func init() {
	encoder.SetControllerType("Simulation: magnetic encoder")
	env.SetupFlags()
	encoder.SetupFlags()
	shaft.SetupFlags()
}

func main() {
	flag.Parse()

	conf := encoder.NewConfig()
	envConf := env.NewConfig()
	if err := conf.SetLabels(envConf); err != nil {
		log.Fatalln(err)
	}
	env := envConf.MustNewEnv()
	ctl, err := conf.NewController(env)
	if err != nil {
		log.Fatalln(err)
	}
	port := shaft.NewConfig().NewPort(ctl.Tracker.Config.Layout)
	if err := ctl.Init(port); err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	loop.Interval = conf.SampleInterval
	loop.Add(env, ctl, &shaft.Engine{Shaft: port.Shaft}).RunOrFail()
}
