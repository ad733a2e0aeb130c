package encoder

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/encoder.go/pkg/cli/sh"
	"github.com/robotalks/encoder.go/pkg/encoder/msgs"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/sensor"
)

var (
	// EncoderStatusCmd exposes EncoderStatusQuery command.
	EncoderStatusCmd = ishell.Cmd{
		Name:    "enc.status",
		Aliases: []string{"es"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.EncoderStatusQuery{})
		}),
	}

	// EncoderZeroCmd exposes EncoderZero command.
	EncoderZeroCmd = ishell.Cmd{
		Name:    "enc.zero",
		Aliases: []string{"ez"},
		Help:    "[abs|rel]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := parseZero(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// ShaftDriveCmd exposes ShaftDrive command of the simulator.
	ShaftDriveCmd = ishell.Cmd{
		Name:    "enc.drive",
		Aliases: []string{"ed"},
		Help:    "SPEED(degrees/s) [ACCEL(degrees/s^2)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := parseDrive(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}
)

func parseZero(args []string) (*msgs.EncoderZero, error) {
	var msg msgs.EncoderZero
	if len(args) == 0 {
		return &msg, nil
	}
	switch args[0] {
	case "abs", "absolute":
	case "rel", "relative":
		msg.Relative = true
	default:
		return nil, fmt.Errorf("expect abs or rel, got %q", args[0])
	}
	return &msg, nil
}

func parseDrive(args []string) (*msgs.ShaftDrive, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("SPEED required")
	}
	var msg msgs.ShaftDrive
	val, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SPEED: %v", err)
	}
	msg.Speed = sensor.AngleFromDegrees(val).Radians()
	if len(args) > 1 {
		if val, err = strconv.ParseFloat(args[1], 64); err != nil {
			return nil, fmt.Errorf("invalid ACCEL: %v", err)
		}
		msg.Accel = sensor.AngleFromDegrees(val).Radians()
	}
	return &msg, nil
}

func formatResult(msg fx.Message) (string, bool) {
	switch m := msg.(type) {
	case *msgs.EncoderStatusReply:
		if m.Status == nil {
			return "no status", true
		}
		return formatStatus(m.Status), true
	case *msgs.EncoderStatus:
		return formatStatus(m), true
	case *msgs.EncoderZeroReply:
		return fmt.Sprintf("zero moved by %.3f° (%.6f rad)", sensor.Angle(m.Delta).Degrees(), m.Delta), true
	}
	return "", false
}

func formatStatus(s *msgs.EncoderStatus) string {
	return fmt.Sprintf("angle %.3f° (%.6f rad, %d turns) velocity %.3f°/s raw %d zero %d/%d reads %d parity errors %d transport errors %d",
		s.Degrees, s.Angle, s.Rotations, sensor.Angle(s.Velocity).Degrees(),
		s.RawCount, s.ZeroOffset, 1<<s.Resolution, s.Reads, s.ParityErrors, s.TransportErrors)
}

func init() {
	sh.AddFormatters(formatResult)
	sh.AddCmds(
		&EncoderStatusCmd,
		&EncoderZeroCmd,
		&ShaftDriveCmd,
	)
}
