package shaft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/encoder.go/pkg/encoder/msgs"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	l1msgs "github.com/robotalks/encoder.go/pkg/l1/msgs"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

type command struct {
	msg  fx.Message
	done fx.Message
}

func (c *command) Msg() fx.Message { return c.msg }

func (c *command) Done(msg fx.Message) error {
	c.done = msg
	return nil
}

type controlContext struct {
	fx.ControlContext
	now  time.Time
	msgs []fx.Message
}

func (c *controlContext) Time() time.Time { return c.now }

func (c *controlContext) Messages() fx.MessageStore { return c }

func (c *controlContext) AddMessages(msgs ...fx.Message) { c.msgs = append(c.msgs, msgs...) }

func (c *controlContext) ProcessMessages(proc fx.MessageProcessor) {
	var remains []fx.Message
	for _, msg := range c.msgs {
		mctx := &messageContext{msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
	}
	c.msgs = remains
}

type messageContext struct {
	fx.MessageAppender
	msg   fx.Message
	taken bool
}

func (c *messageContext) CurrentMessage() fx.Message { return c.msg }
func (c *messageContext) MessageTaken()              { c.taken = true }
func (c *messageContext) StopProcessing()            {}

func TestEngineDrive(t *testing.T) {
	start := time.Unix(1000, 0)
	e := &Engine{Shaft: New(start)}
	drive := &command{msg: &msgs.ShaftDrive{Speed: 3}}
	other := &command{msg: &msgs.EncoderZero{}}
	cc := &controlContext{now: start, msgs: []fx.Message{
		&l1.CommandMsg{Command: drive},
		&l1.CommandMsg{Command: other},
	}}
	require.NoError(t, e.HandleCommand(cc))
	require.Equal(t, l1msgs.NewCommandOK(), drive.done)
	require.Nil(t, other.done)
	require.Len(t, cc.msgs, 1)
	require.InDelta(t, 6, e.Shaft.Position(start.Add(2*time.Second)).Radians(), 1e-9)
}

func TestConfigNewPort(t *testing.T) {
	conf := NewConfig()
	conf.Speed, conf.Offset, conf.Seed = 0, 20000, 3
	p := conf.NewPort(magspi.AS5147().Layout)
	require.Equal(t, uint16(20000-16384), p.Offset)
	require.NotNil(t, p.Rand)
	require.Equal(t, uint16(20000-16384), p.RawCount())
}
