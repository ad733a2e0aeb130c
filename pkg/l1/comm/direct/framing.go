package direct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/websocket"
)

// MaxPacketSize bounds a single typed message on a direct link. Encoder
// messages are a few dozen bytes, anything near this is a corrupt stream.
const MaxPacketSize = 64 * 1024

// ErrPacketTooLarge is returned when a peer announces or sends a packet
// beyond MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// tcpFramer frames packets on a byte stream with a 4-byte little-endian
// length prefix.
type tcpFramer struct {
	rw  io.ReadWriter
	hdr [4]byte
}

func (f *tcpFramer) ReadPacket() ([]byte, error) {
	if _, err := io.ReadFull(f.rw, f.hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(f.hdr[:])
	if size > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, size)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(f.rw, pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WritePacket writes the header and payload in one call so concurrent
// writers serialized by the pipe never interleave partial frames.
func (f *tcpFramer) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return ErrPacketTooLarge
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := f.rw.Write(buf)
	return err
}

// wsFramer maps one packet to one binary websocket message.
type wsFramer struct {
	conn *websocket.Conn
}

func newWSFramer(conn *websocket.Conn) *wsFramer {
	conn.PayloadType = websocket.BinaryFrame
	conn.MaxPayloadBytes = MaxPacketSize
	return &wsFramer{conn: conn}
}

func (f *wsFramer) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(f.conn, &pkt)
	if err == websocket.ErrFrameTooLarge {
		err = ErrPacketTooLarge
	}
	return
}

func (f *wsFramer) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return ErrPacketTooLarge
	}
	return websocket.Message.Send(f.conn, pkt)
}
