// Package exec adapts an external tap executable to the messaging.Tap
// interface. It spawns the program, drives its discovery and sync modes
// through the standard Singer CLI contract, and relays its stdout into a
// MessageWriter while capturing stderr for diagnostics.
package exec
