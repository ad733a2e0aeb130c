package direct

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	encmsgs "github.com/robotalks/encoder.go/pkg/encoder/msgs"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

func TestDirectLink(t *testing.T) {
	for _, scheme := range []string{SchemeTCP, SchemeWebsocket} {
		t.Run(scheme, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			server, err := NewServer(scheme + "://127.0.0.1:0/l1")
			require.NoError(t, err)
			serverLoop := fx.NewLoop().Add(server, &comm.UnsupportedCommands{})
			go serverLoop.Run(ctx)

			connector, err := NewConnector(scheme + "://" + server.Addr().String() + "/l1")
			require.NoError(t, err)
			_, err = connector.Discover(ctx)
			require.Equal(t, ErrDiscoveryUnsupported, err)

			conn, err := connector.Connect(ctx, l1.ControllerRef{Type: "encoder", ID: "test"})
			require.NoError(t, err)
			events := make(chan *encmsgs.EncoderStatus, 1)
			clientLoop := fx.NewLoop().Add(conn.(fx.LoopAdder))
			clientLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
				cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
					if status, ok := mctx.CurrentMessage().(*encmsgs.EncoderStatus); ok {
						mctx.MessageTaken()
						events <- status
					}
				}))
				return nil
			}))
			go clientLoop.Run(ctx)

			select {
			case res := <-conn.DoCommand(&encmsgs.EncoderStatusQuery{}).ResultChan():
				require.Error(t, res.Err)
				require.Equal(t, msgs.ErrUnsupportedCommand.Error(), res.Err.Error())
			case <-time.After(5 * time.Second):
				t.Fatal("command timeout")
			}

			require.NoError(t, server.SendEvent(ctx, &encmsgs.EncoderStatus{Angle: 1.5, RawCount: 3910}))
			select {
			case status := <-events:
				require.Equal(t, 1.5, status.Angle)
				require.Equal(t, uint32(3910), status.RawCount)
			case <-time.After(5 * time.Second):
				t.Fatal("event timeout")
			}
		})
	}
}

func TestInvalidURLs(t *testing.T) {
	_, err := NewServer("mqtt://localhost:1883/robo/")
	require.Error(t, err)
	_, err = NewConnector("udp://localhost:7410")
	require.Error(t, err)
}

func TestTCPFramer(t *testing.T) {
	var buf bytes.Buffer
	f := &tcpFramer{rw: &buf}
	require.NoError(t, f.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, f.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := f.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = f.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = f.ReadPacket()
	require.Equal(t, io.EOF, err)

	require.Equal(t, ErrPacketTooLarge, f.WritePacket(make([]byte, MaxPacketSize+1)))
	buf.Reset()
	buf.Write([]byte{0xff, 0xff, 0xff, 0x7f})
	_, err = f.ReadPacket()
	require.True(t, errors.Is(err, ErrPacketTooLarge))

	buf.Reset()
	buf.Write([]byte{4, 0, 0, 0, 1})
	_, err = f.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}
