package shaft

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/sensor"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

// Port is a spi.Port with a simulated magnetic encoder attached, reading the
// position of a Shaft. It answers every frame with the angle register, one
// frame late if the layout is pipelined.
type Port struct {
	Shaft  *Shaft
	Layout magspi.RegisterLayout
	// Offset is the raw count read when the shaft is at position 0.
	Offset uint16
	// Noise is the probability of flipping one bit in a response frame.
	Noise float64
	// Now defaults to time.Now.
	Now  func() time.Time
	Rand *rand.Rand

	lock    sync.Mutex
	latched uint16
	frames  uint64
	flipped uint64
}

// NewPort creates a Port reading shaft.
func NewPort(shaft *Shaft, layout magspi.RegisterLayout) *Port {
	return &Port{Shaft: shaft, Layout: layout}
}

// String implements spi.Port.
func (p *Port) String() string {
	return "sim-shaft"
}

// Connect implements spi.Port.
func (p *Port) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if bits != 8 {
		return nil, fmt.Errorf("sim-shaft: unsupported %d bits per word", bits)
	}
	return p, nil
}

// LimitSpeed implements spi.Port.
func (p *Port) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Duplex implements spi.Conn.
func (p *Port) Duplex() conn.Duplex {
	return conn.Full
}

// Tx implements spi.Conn. A transfer is one frame of 1 or 2 bytes, MSB first.
func (p *Port) Tx(w, r []byte) error {
	if len(w) != len(r) || len(w) == 0 || len(w) > 2 {
		return fmt.Errorf("sim-shaft: invalid transfer of %d/%d bytes", len(w), len(r))
	}
	var cmd uint16
	for _, b := range w {
		cmd = cmd<<8 | uint16(b)
	}
	resp := p.respond(cmd)
	for i := range r {
		r[i] = byte(resp >> uint(8*(len(r)-1-i)))
	}
	return nil
}

// TxPackets implements spi.Conn.
func (p *Port) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// RawCount returns the count the encoder currently measures.
func (p *Port) RawCount() uint16 {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cpr := uint32(p.Layout.CountsPerRevolution())
	single := p.Shaft.Position(now()).SingleTurn().Radians()
	count := uint32(math.Floor(single/sensor.FullTurn*float64(cpr))) % cpr
	return uint16(count+uint32(p.Offset)) & p.Layout.DataMask()
}

// Frames returns the number of frames exchanged and how many were
// corrupted by noise.
func (p *Port) Frames() (total, flipped uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.frames, p.flipped
}

func (p *Port) respond(cmd uint16) uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.frames++
	frame := p.Layout.Encode(p.RawCount())
	if p.Layout.Pipelined {
		// the response of the angle command arrives with the next frame.
		next := p.Layout.Encode(0)
		if cmd == p.Layout.Command() {
			next = frame
		}
		frame, p.latched = p.latched, next
	}
	return p.addNoise(frame)
}

func (p *Port) addNoise(frame uint16) uint16 {
	if p.Noise <= 0 {
		return frame
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if p.Rand.Float64() >= p.Noise {
		return frame
	}
	p.flipped++
	bits := 16
	if p.Layout.DataStartBit < 8 && p.Layout.RWBit < 8 && p.Layout.ParityBit < 8 {
		bits = 8
	}
	return frame ^ 1<<uint(p.Rand.Intn(bits))
}
