// Package sh is the interactive shell of robocli. Built-in commands find and
// connect a controller, commands registered by other packages talk to it.
package sh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	env "github.com/robotalks/encoder.go/pkg/l1/env/connector"
)

// Errors reported to the shell.
var (
	ErrNotConnected = errors.New("not connected")
	ErrNoController = errors.New("no controller discovered")
)

// Shell provides ishell backed interactive shell talking to one L1
// controller at a time.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *ConnLoop
}

// ConnLoop is a running loop with a controller connection. Events from the
// controller are queued in Events, the oldest dropped when full.
type ConnLoop struct {
	Ref    l1.ControllerRef
	Loop   *fx.Loop
	Conn   l1.ControllerConn
	Events chan fx.Message

	cancel func()
}

// EventBacklog is the capacity of ConnLoop.Events.
const EventBacklog = 64

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly       bool
	outputJSON     bool
	commandTimeout = time.Second

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&WatchCmd,
	}
)

// SetupFlags registers the shell flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&commandTimeout, "timeout", commandTimeout, "Timeout waiting for a command result.")
}

// AddCmds is used by command providers during init.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     commandTimeout,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Print prints a message in the selected output format.
func (s *Shell) Print(c *ishell.Context, msg fx.Message) {
	if !s.OutputJSON {
		c.Println(FormatResult(msg))
		return
	}
	out, err := FormatJSON(msg)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

// Execute sends a command and waits for the result up to Timeout.
func (s *Shell) Execute(msg fx.Message) (fx.Message, error) {
	if s.Loop == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	select {
	case res := <-s.Loop.Conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("command timeout: %w", ctx.Err())
	}
}

// DoCommand runs a command and prints the result.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	reply, err := s.Execute(msg)
	if err != nil {
		c.Err(err)
		return err
	}
	s.Print(c, reply)
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverControllers lists controllers accepted by filter, nil accepts all.
func (s *Shell) DiscoverControllers(filter func(l1.ControllerInfo) bool) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	found, err := connector.Discover(context.Background())
	if err != nil || filter == nil {
		return found, err
	}
	infoList := found[:0]
	for _, info := range found {
		if filter(info) {
			infoList = append(infoList, info)
		}
	}
	return infoList, nil
}

// SelectController discovers controllers and asks for a choice when more
// than one is found.
func (s *Shell) SelectController(filter func(l1.ControllerInfo) bool) (*l1.ControllerInfo, error) {
	infoList, err := s.DiscoverControllers(filter)
	switch {
	case err != nil:
		return nil, err
	case len(infoList) == 0:
		return nil, ErrNoController
	case len(infoList) == 1:
		return &infoList[0], nil
	case !s.Interactive:
		return nil, fmt.Errorf("%d controllers discovered in non-interactive mode", len(infoList))
	}
	items := make([]string, len(infoList))
	for n, info := range infoList {
		items[n] = FormatInfo(info)
	}
	index := s.Shell.MultiChoice(items, "Which one to connect?")
	if index < 0 {
		return nil, ErrNoController
	}
	return &infoList[index], nil
}

// Connect connects controller with ref, replacing the current connection.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	connLoop := &ConnLoop{
		Ref:    ref,
		Loop:   fx.NewLoop(),
		Conn:   conn,
		Events: make(chan fx.Message, EventBacklog),
		cancel: cancel,
	}
	if adder, ok := conn.(fx.LoopAdder); ok {
		connLoop.Loop.Add(adder)
	}
	connLoop.Loop.AddController(fx.PrLvControl, fx.ControlFunc(connLoop.collectEvents))
	s.Disconnect()
	s.Loop = connLoop
	go connLoop.Loop.Run(ctx)
	s.Shell.SetPrompt(ref.Name() + " > ")
	return nil
}

// Disconnect disconnects current controller.
func (s *Shell) Disconnect() {
	if s.Loop == nil {
		return
	}
	s.Loop.cancel()
	if closer, ok := s.Loop.Conn.(io.Closer); ok {
		closer.Close()
	}
	s.Loop = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// collectEvents moves events out of the loop, every message reaching a
// connection loop is an event.
func (l *ConnLoop) collectEvents(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		mctx.MessageTaken()
		msg := mctx.CurrentMessage()
		for {
			select {
			case l.Events <- msg:
				return
			default:
			}
			select {
			case <-l.Events:
			default:
			}
		}
	}))
	return nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}
	switch {
	case len(args) > 0:
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
	default:
		log.Fatalln("command expected")
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
