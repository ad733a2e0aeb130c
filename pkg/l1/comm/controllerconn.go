package comm

import (
	"context"
	"errors"
	"sync"
	"time"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

// ErrLinkClosed fails the commands pending when the link goes down.
var ErrLinkClosed = errors.New("link closed")

// ControllerConn is the connector side of a Pipe. Commands are matched to
// replies by sequence number; events are posted to the loop.
type ControllerConn struct {
	Expiration time.Duration

	pipe    Pipe
	lock    sync.Mutex
	seq     uint32
	pending map[uint32]*pendingCommand
	closed  error
}

type pendingCommand struct {
	expireAt time.Time
	result   chan l1.Result
}

func (p *pendingCommand) ResultChan() <-chan l1.Result {
	return p.result
}

func (p *pendingCommand) finish(res l1.Result) {
	p.result <- res
	close(p.result)
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*pendingCommand)
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	f := &pendingCommand{result: make(chan l1.Result, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed != nil {
		f.finish(l1.Result{Err: c.closed})
		return f
	}
	// 0 is never used, a reply with seq 0 is unsolicited.
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	if err := c.pipe.SendCommandMsg(msg, c.seq); err != nil {
		f.finish(l1.Result{Err: err})
		return f
	}
	f.expireAt = time.Now().Add(c.Expiration)
	c.pending[c.seq] = f
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *ControllerConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	if adder, ok := c.pipe.ReadWriter.(fx.LoopAdder); ok {
		l.Add(adder)
	} else if runnable, ok := c.pipe.ReadWriter.(fx.Runnable); ok {
		l.AddRunnable(runnable)
	}
	l.AddRunnable(fx.RunFunc(c.run))
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *ControllerConn) run(ctx context.Context) error {
	err := c.pipe.Run(ctx)
	c.failAll(ErrLinkClosed)
	return err
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if f == nil {
		return nil
	}
	res := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		res.Err = cmdErr
	}
	f.finish(res)
	return nil
}

func (c *ControllerConn) purgeExpired(cc fx.ControlContext) error {
	now := time.Now()
	c.lock.Lock()
	defer c.lock.Unlock()
	for seq, f := range c.pending {
		if now.Before(f.expireAt) {
			continue
		}
		delete(c.pending, seq)
		f.finish(l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

func (c *ControllerConn) failAll(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = err
	for seq, f := range c.pending {
		delete(c.pending, seq)
		f.finish(l1.Result{Err: err})
	}
}
