package comm

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Errors of misdirected messages.
var (
	ErrNotCommand = errors.New("message is not a command")
	ErrNotEvent   = errors.New("message is not an event")
)

// Pipe carries typed messages over a PacketReadWriter in both directions.
// Sending is safe from multiple goroutines, Run is the only reader.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	sendLock sync.Mutex
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{ReadWriter: rw}
}

// SendCommandMsg sends a command or a reply to one, tagged with seq.
func (p *Pipe) SendCommandMsg(msg fx.Message, seq uint32) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsCommand() {
		return ErrNotCommand
	}
	typed.Sequence = seq
	return p.SendTyped(typed)
}

// SendEventMsg sends an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return ErrNotEvent
	}
	return p.SendTyped(typed)
}

// SendTyped encodes and writes a Typed envelope.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. It returns when the ReadWriter fails, and closes
// it on the way out.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		if err = p.receive(ctx, pkt); err != nil {
			return err
		}
	}
}

// receive dispatches one packet. Malformed envelopes and unknown types are
// dropped, except that a command is always answered so the sender doesn't
// wait for its expiration.
func (p *Pipe) receive(ctx context.Context, pkt []byte) error {
	typed, err := msgs.DecodeTyped(pkt)
	if err != nil {
		glog.V(1).Infof("pipe: dropped %d bytes: %v", len(pkt), err)
		return nil
	}
	msg, err := typed.Decode()
	if err != nil {
		glog.V(1).Infof("pipe: type %#08x: %v", typed.TypeId, err)
		if typed.IsCommand() && !typed.IsReply() {
			return p.SendCommandMsg(msgs.NewCommandErr(err), typed.Sequence)
		}
		return nil
	}
	if h := p.Handler; h != nil {
		return h.HandleTypedMsg(ctx, msg, typed)
	}
	return nil
}

// Close implements Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder. A ReadWriter which runs itself, like the
// MQTT one, is added as well.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(p)
}
