// Package spibus is the L0 transport used by SPI sensors: one register
// exchange is a duplex transfer of a single command word answered by a
// single response word.
//
// The adapter owns the bus configuration (mode, clock and word width) and,
// optionally, drives the chip select line itself. Every exchange holds an
// exclusive lock on the bus so devices sharing a port never interleave
// their frames. No retries or integrity checks happen here: corrupted frames
// are detected by the sensor driver (e.g. using a parity bit).
package spibus
