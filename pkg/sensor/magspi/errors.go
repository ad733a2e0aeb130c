package magspi

import (
	"errors"
	"fmt"
)

var (
	// ErrParity indicates a response frame failed the parity check.
	ErrParity = errors.New("parity mismatch")
	// ErrNotInitialized indicates the tracker is used before Init.
	ErrNotInitialized = errors.New("sensor not initialized")
)

// ParityError reports the corrupted frame.
type ParityError struct {
	Frame uint16
}

// Error implements error.
func (e *ParityError) Error() string {
	return fmt.Sprintf("parity mismatch in frame %#04x", e.Frame)
}

// Is matches ErrParity.
func (e *ParityError) Is(target error) bool {
	return target == ErrParity
}

// LayoutError reports an invalid register layout.
type LayoutError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *LayoutError) Error() string {
	return "invalid layout " + e.Field + ": " + e.Reason
}
