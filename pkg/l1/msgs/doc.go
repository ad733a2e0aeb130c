// Package msgs defines the L1 envelope and the generic command replies.
//
// Every message on the wire is a Typed envelope carrying a 32-bit type ID,
// the command sequence and the encoded payload. Type IDs are grouped, the
// kind bit separates commands from events and the reply bit marks replies
// to commands. Device specific messages register themselves in MessageTypes
// from their own packages.
package msgs
