// Package direct links L1 controllers and L2 connectors point to point, over
// plain TCP streams (tcp://host:port) or websockets (ws://host:port/path),
// without a broker.
package direct

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1/comm"
)

// Schemes
const (
	SchemeTCP       = "tcp"
	SchemeWebsocket = "ws"
)

// Server implements l1.Registrar by accepting connections from connectors.
// Events are sent to all connected peers.
type Server struct {
	URL *url.URL

	listener net.Listener
	lock     sync.Mutex
	peers    map[*peer]struct{}
}

type peer struct {
	registrar comm.Registrar
	conn      io.Closer
}

// NewServer listens on the address in listenURL.
func NewServer(listenURL string) (*Server, error) {
	u, err := url.Parse(listenURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != SchemeTCP && u.Scheme != SchemeWebsocket {
		return nil, fmt.Errorf("unsupported scheme %q, expect tcp or ws", u.Scheme)
	}
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	glog.Infof("listening on %s://%s%s", u.Scheme, l.Addr(), u.Path)
	return &Server{URL: u, listener: l, peers: make(map[*peer]struct{})}, nil
}

// Addr is the address listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops listening, for a server which never ran.
func (s *Server) Close() error {
	return s.listener.Close()
}

// SendEvent implements Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	s.lock.Lock()
	defer s.lock.Unlock()
	for p := range s.peers {
		errs.Add(p.registrar.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.URL.Scheme == SchemeWebsocket {
			errCh <- s.serveWebsocket(ctx)
		} else {
			errCh <- s.serveTCP(ctx)
		}
	}()
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}
	s.listener.Close()
	s.lock.Lock()
	for p := range s.peers {
		p.conn.Close()
	}
	s.lock.Unlock()
	return err
}

func (s *Server) serveTCP(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.serve(ctx, conn, &tcpFramer{rw: conn})
	}
}

func (s *Server) serveWebsocket(ctx context.Context) error {
	path := s.URL.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Server{Handler: func(conn *websocket.Conn) {
		s.serve(ctx, conn, newWSFramer(conn))
	}})
	return (&http.Server{Handler: mux}).Serve(s.listener)
}

func (s *Server) serve(ctx context.Context, conn io.Closer, rw comm.PacketReadWriter) {
	p := &peer{conn: conn}
	p.registrar.Init(rw)
	s.lock.Lock()
	s.peers[p] = struct{}{}
	s.lock.Unlock()
	glog.V(1).Infof("peer connected")

	err := p.registrar.Serve(ctx)

	s.lock.Lock()
	delete(s.peers, p)
	s.lock.Unlock()
	conn.Close()
	glog.V(1).Infof("peer disconnected: %v", err)
}
