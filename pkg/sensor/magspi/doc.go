// Package magspi drives absolute magnetic angle encoders (AS5147, MA730 and
// compatible parts) over SPI.
//
// A read is one register exchange: the command word carries the angle
// register address, a read flag and an even parity bit; the response word
// carries the raw count and, depending on the part, its own parity bit.
// Tracker turns raw counts into a continuous multi-turn angle and an angular
// velocity, and implements sensor.Sensor.
//
// The continuous angle assumes the shaft turns less than half a revolution
// between two reads, so the polling rate must exceed twice the maximum
// shaft speed in revolutions per second.
package magspi
