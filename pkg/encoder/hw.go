package encoder

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// OpenHardware opens the SPI port and looks up the chip select pin named by
// the config. Drivers must be loaded (host.Init) before. The returned
// closer releases the port.
func (c *Config) OpenHardware() (spi.PortCloser, gpio.PinIO, error) {
	port, err := spireg.Open(c.SPIPort)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi port %q: %w", c.SPIPort, err)
	}
	if c.ChipSelect == "" {
		return port, nil, nil
	}
	pin := gpioreg.ByName(c.ChipSelect)
	if pin == nil {
		port.Close()
		return nil, nil, fmt.Errorf("unknown gpio pin %q", c.ChipSelect)
	}
	return port, pin, nil
}
