// Package messaging moves Singer messages between taps and targets.
//
// On the tap side, MessageWriter frames messages onto a byte sink, one JSON
// object per line, and may be cloned so several producers share a single sink
// safely. On the target side, StreamProcessor reads a newline-delimited
// message stream, gates records through a schema.ValidationContext, and
// dispatches them to an application-supplied Target.
//
// The Tap and Target interfaces define the boundary to application code:
// taps produce the stream, targets consume validated records and, optionally,
// state checkpoints.
package messaging
