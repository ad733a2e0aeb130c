package comm

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// Registrar is the controller side of a Pipe. Received commands are posted
// to the loop as l1.CommandMsg and replied through Done.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.handleTypedMsg)
}

func (r *Registrar) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	switch {
	case typed.IsReply():
		// replies only flow towards connectors.
		return nil
	case typed.IsCommand():
		msg = &l1.CommandMsg{Command: &pipeCommand{seq: typed.Sequence, msg: msg, pipe: &r.pipe}}
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(msg)
	loopCtl.TriggerNext()
	return nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// Serve runs the pipe until the connection fails, for registrars created
// after the loop started. ctx must come from the loop.
func (r *Registrar) Serve(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

type pipeCommand struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
	done bool
}

func (c *pipeCommand) Msg() fx.Message {
	return c.msg
}

// Done replies once, later calls are ignored.
func (c *pipeCommand) Done(reply fx.Message) error {
	if c.done {
		return nil
	}
	c.done = true
	return c.pipe.SendCommandMsg(reply, c.seq)
}

// RegistrarMux fans events out to multiple Registrars.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// SendEvent implements Registrar. Every registrar is tried.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// UnsupportedCommands replies to commands no controller took. It runs at
// PrLvIdle, after every controller had its chance.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		mctx.MessageTaken()
		glog.V(1).Infof("unsupported command %T", cmdMsg.Command.Msg())
		if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
			glog.Warningf("reply unsupported command: %v", err)
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
