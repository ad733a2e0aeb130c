// Package all registers all shell commands.
package all

import (
	// commands register themselves in init.
	_ "github.com/robotalks/encoder.go/pkg/cli/cmds/encoder"
)
