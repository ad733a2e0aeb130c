package spibus

import (
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// ChipSelect is the output line selecting the device. gpio.PinOut
// implements it.
type ChipSelect interface {
	Out(gpio.Level) error
}

// Bus serialises exchanges of devices sharing the same port.
type Bus struct {
	lock sync.Mutex
}

// acquire locks the bus and returns the func releasing it.
// A nil bus is not shared and needs no locking.
func (b *Bus) acquire() func() {
	if b == nil {
		return func() {}
	}
	b.lock.Lock()
	return b.lock.Unlock
}

// Transport performs register exchanges with one device.
type Transport struct {
	Config Config
	// Bus is shared with other devices on the same port; a private one is
	// used when nil.
	Bus *Bus
	// CS is driven by the transport when set, otherwise the port manages
	// chip select.
	CS ChipSelect

	port spi.Port
	conn spi.Conn
	tx   []byte
	rx   []byte
}

// New creates a Transport on a port.
func New(port spi.Port, cs ChipSelect, conf Config) *Transport {
	return &Transport{Config: conf, CS: cs, port: port}
}

// Open configures the bus and leaves the device deselected.
func (t *Transport) Open() error {
	if t.port == nil {
		return ErrNoPort
	}
	if err := t.Config.Validate(); err != nil {
		return err
	}
	if t.Bus == nil {
		t.Bus = &Bus{}
	}
	freq := t.Config.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	mode := t.Config.Mode
	if t.CS != nil {
		mode |= spi.NoCS
	}
	release := t.Bus.acquire()
	defer release()
	conn, err := t.port.Connect(freq, mode, 8)
	if err != nil {
		return err
	}
	if err = t.deselect(); err != nil {
		return err
	}
	t.conn = conn
	t.tx, t.rx = make([]byte, t.Config.WordBytes()), make([]byte, t.Config.WordBytes())
	glog.V(2).Infof("spi %s open: mode=%d freq=%s word=%d", t.port, t.Config.Mode, freq, t.Config.WordBits)
	return nil
}

// Exchange transfers a command word and returns the response word clocked
// in during the same transfer.
func (t *Transport) Exchange(cmd uint16) (uint16, error) {
	if t.conn == nil {
		return 0, ErrNotOpen
	}
	release := t.Bus.acquire()
	defer release()

	if t.CS != nil {
		if err := t.CS.Out(gpio.Low); err != nil {
			return 0, err
		}
		defer t.deselect()
	}

	n := len(t.tx)
	for i := 0; i < n; i++ {
		t.tx[i] = byte(cmd >> uint(8*(n-1-i)))
	}
	if err := t.conn.Tx(t.tx, t.rx); err != nil {
		return 0, err
	}
	var resp uint16
	for _, b := range t.rx {
		resp = resp<<8 | uint16(b)
	}
	glog.V(5).Infof("spi %s: %#04x -> %#04x", t.port, cmd, resp)
	return resp, nil
}

// Close deselects the device. It's safe to call multiple times.
func (t *Transport) Close() error {
	t.conn = nil
	return t.deselect()
}

func (t *Transport) deselect() error {
	if t.CS != nil {
		return t.CS.Out(gpio.High)
	}
	return nil
}
