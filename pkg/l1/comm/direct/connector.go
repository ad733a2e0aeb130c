package direct

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"golang.org/x/net/websocket"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm"
)

// ErrDiscoveryUnsupported indicates a direct link can't enumerate
// controllers, the URL points to exactly one.
var ErrDiscoveryUnsupported = errors.New("discovery not supported on direct links")

// Connector implements l1.Connector by dialing a Server.
type Connector struct {
	URL *url.URL
}

// NewConnector creates a Connector.
func NewConnector(serverURL string) (*Connector, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != SchemeTCP && u.Scheme != SchemeWebsocket {
		return nil, fmt.Errorf("unsupported scheme %q, expect tcp or ws", u.Scheme)
	}
	return &Connector{URL: u}, nil
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return nil, ErrDiscoveryUnsupported
}

// Connect implements Connector. The ref is not checked, the server at the
// URL is the controller.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn := &ControllerConn{}
	if c.URL.Scheme == SchemeWebsocket {
		ws, err := websocket.Dial(c.URL.String(), "", "http://"+c.URL.Host+"/")
		if err != nil {
			return nil, err
		}
		conn.conn = ws
		conn.Init(newWSFramer(ws))
	} else {
		var d net.Dialer
		nc, err := d.DialContext(ctx, "tcp", c.URL.Host)
		if err != nil {
			return nil, err
		}
		conn.conn = nc
		conn.Init(&tcpFramer{rw: nc})
	}
	return conn, nil
}

// ControllerConn implements ControllerConn over a direct link.
type ControllerConn struct {
	comm.ControllerConn
	conn io.Closer
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	c.ControllerConn.AddToLoop(l)
	l.AddRunnable(c)
}

// Run implements Runnable, it closes the link when the loop stops.
func (c *ControllerConn) Run(ctx context.Context) error {
	<-ctx.Done()
	c.conn.Close()
	return ctx.Err()
}

// Close closes the link.
func (c *ControllerConn) Close() error {
	return c.conn.Close()
}
