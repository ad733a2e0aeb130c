package main

import (
	"github.com/robotalks/encoder.go/pkg/cli/sh"
	env "github.com/robotalks/encoder.go/pkg/l1/env/connector"

	_ "github.com/robotalks/encoder.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
	sh.SetupFlags()
}

func main() {
	sh.Main()
}
