package mqtt

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/encoder.go/pkg/l1"
)

// Topic suffixes under a controller's name.
const (
	TopicCommands = "cmd"
	TopicMessages = "msg"
	TopicMeta     = "meta"
)

// DefaultBacklog is the number of received packets buffered before
// further packets are dropped.
const DefaultBacklog = 16

// ReadWriter carries typed packets over a pair of topics: it reads from
// SubTopic and writes to PubTopic.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, DefaultBacklog),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForConnector reads what a controller publishes and writes commands.
func (p *ReadWriter) ForConnector(ref l1.ControllerRef) *ReadWriter {
	return p.WithTopics(ControllerTopic(ref, TopicMessages), ControllerTopic(ref, TopicCommands))
}

// ForController reads commands and publishes events and replies.
func (p *ReadWriter) ForController(ref l1.ControllerRef) *ReadWriter {
	return p.WithTopics(ControllerTopic(ref, TopicCommands), ControllerTopic(ref, TopicMessages))
}

// ControllerTopic is the topic for suffix under ref, type/id/suffix.
func ControllerTopic(ref l1.ControllerRef, suffix string) string {
	return ref.Name() + "/" + suffix
}

// ReadPacket implements PacketReader. io.EOF is returned once Run stops.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	<-ctx.Done()
	sub.Close()
	close(p.done)
	return ctx.Err()
}

// handleMsg never blocks the paho router: a slow loop loses packets instead
// of stalling every subscription on the client.
func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	default:
		glog.Warningf("mqtt: backlog full, dropped packet on %s", topic)
	}
}
