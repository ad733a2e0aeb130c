// Package sensor defines the position sensor capability consumed by motor
// control loops, and the time base sensors use to estimate velocity.
//
// A Sensor is selected at configuration time: absolute magnetic encoders
// (see package magspi) report the shaft position without homing, while
// incremental or analog sensors may need a zero search before use.
package sensor
