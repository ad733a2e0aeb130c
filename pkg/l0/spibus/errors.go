package spibus

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPort indicates the transport is not bound to a bus.
	ErrNoPort = errors.New("spi port not provided")
	// ErrNotOpen indicates Exchange is called before Open.
	ErrNotOpen = errors.New("spi transport not open")
)

// WordSizeError reports an unsupported word width.
type WordSizeError struct {
	Bits int
}

// Error implements error.
func (e *WordSizeError) Error() string {
	return fmt.Sprintf("unsupported word size %d bits, expect 8 or 16", e.Bits)
}
