package sh

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

type plain struct{}

func (m *plain) NewMessage() fx.Message { return &plain{} }

func TestFormatResult(t *testing.T) {
	require.Equal(t, "OK", FormatResult(msgs.NewCommandOK()))
	out := FormatResult(msgs.NewCommandErr(errors.New("bus fault")))
	require.True(t, strings.HasPrefix(out, "CommandErr "), out)
	require.Contains(t, out, `"bus fault"`)
	require.Equal(t, "plain", FormatResult(&plain{}))
}

func TestFormatInfo(t *testing.T) {
	info := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "encoder", ID: "a1"}}
	require.Equal(t, "encoder/a1", FormatInfo(info))
	info.Meta.Description = "AS5147 on spi0"
	require.Equal(t, "encoder/a1: AS5147 on spi0", FormatInfo(info))
}

func TestParseConnectArgs(t *testing.T) {
	testCases := []struct {
		args []string
		ref  l1.ControllerRef
		err  bool
	}{
		{nil, l1.ControllerRef{}, false},
		{[]string{"encoder"}, l1.ControllerRef{Type: "encoder"}, false},
		{[]string{"encoder/a1"}, l1.ControllerRef{Type: "encoder", ID: "a1"}, false},
		{[]string{"encoder", "a1"}, l1.ControllerRef{Type: "encoder", ID: "a1"}, false},
		{[]string{"encoder", "a1", "x"}, l1.ControllerRef{}, true},
	}
	for _, tc := range testCases {
		ref, err := parseConnectArgs(tc.args)
		if tc.err {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.ref, ref)
	}
}

func TestParseWatchArgs(t *testing.T) {
	dur, err := parseWatchArgs(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultWatchDuration, dur)
	dur, err = parseWatchArgs([]string{"0.5"})
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, dur)
	_, err = parseWatchArgs([]string{"-1"})
	require.Error(t, err)
	_, err = parseWatchArgs([]string{"soon"})
	require.Error(t, err)
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(msgs.NewCommandErrFromMsg("bus fault"))
	require.NoError(t, err)
	require.Equal(t, `{"message":"bus fault"}`, out)
}

func TestCollectEventsDropsOldest(t *testing.T) {
	l := &ConnLoop{Events: make(chan fx.Message, 2)}
	iter := &fakeControl{}
	iter.msgs = []fx.Message{&plain{}, msgs.NewCommandOK(), msgs.NewCommandErrFromMsg("last")}
	require.NoError(t, l.collectEvents(iter))
	require.Len(t, l.Events, 2)
	require.IsType(t, &msgs.CommandOK{}, <-l.Events)
	require.IsType(t, &msgs.CommandErr{}, <-l.Events)
	require.Empty(t, iter.msgs)
}

type fakeControl struct {
	fx.ControlContext
	msgs []fx.Message
}

func (c *fakeControl) Messages() fx.MessageStore { return c }

func (c *fakeControl) AddMessages(msgs ...fx.Message) { c.msgs = append(c.msgs, msgs...) }

func (c *fakeControl) ProcessMessages(proc fx.MessageProcessor) {
	var remains []fx.Message
	for _, msg := range c.msgs {
		mctx := &fakeMessage{msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
	}
	c.msgs = remains
}

type fakeMessage struct {
	fx.MessageAppender
	msg   fx.Message
	taken bool
}

func (m *fakeMessage) CurrentMessage() fx.Message { return m.msg }
func (m *fakeMessage) MessageTaken()              { m.taken = true }
func (m *fakeMessage) StopProcessing()            {}
