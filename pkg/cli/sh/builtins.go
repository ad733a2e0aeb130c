package sh

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/encoder.go/pkg/l1"
)

// DefaultWatchDuration is how long watch prints events without an argument.
const DefaultWatchDuration = 5 * time.Second

var (
	// DiscoverCmd discovers controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list registered controllers",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverControllers(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE/ID | TYPE ID | TYPE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref, err := parseConnectArgs(c.Args)
			if err == nil && !ref.IsValid() {
				var info *l1.ControllerInfo
				info, err = s.SelectController(func(info l1.ControllerInfo) bool {
					return ref.Type == "" || info.Ref.Type == ref.Type
				})
				if info != nil {
					ref = info.Ref
				}
			}
			if err == nil {
				err = s.Connect(ref)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "close the connection",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// WatchCmd prints events from the connected controller.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS] print events from the controller",
		Func: MustBeConnected(func(c *ishell.Context) {
			dur, err := parseWatchArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			timeout := time.After(dur)
			for {
				select {
				case msg := <-s.Loop.Events:
					s.Print(c, msg)
				case <-timeout:
					return
				}
			}
		}),
	}
)

// parseConnectArgs returns a partial ref when discovery is needed.
func parseConnectArgs(args []string) (ref l1.ControllerRef, err error) {
	switch len(args) {
	case 0:
	case 1:
		if ref, err = l1.ParseControllerRef(args[0]); err != nil {
			ref, err = l1.ControllerRef{Type: args[0]}, nil
		}
	case 2:
		ref.Type, ref.ID = args[0], args[1]
	default:
		err = fmt.Errorf("too many arguments")
	}
	return
}

func parseWatchArgs(args []string) (time.Duration, error) {
	if len(args) == 0 {
		return DefaultWatchDuration, nil
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid SECONDS %q", args[0])
	}
	return time.Duration(secs * float64(time.Second)), nil
}
