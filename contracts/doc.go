// Package contracts provides the core Singer message types and their wire codec.
//
// This package defines the data that flows between a tap and a target:
//   - Message: tagged union over the three wire message kinds
//   - Schema: describes the shape of a stream's records
//   - Record: one extracted row for a stream
//   - State: an opaque checkpoint blob
//   - Catalog: the output of a tap's discovery mode
//   - InvocationContext: the file-path options a tap is invoked with
//
// Every message serializes to a single JSON object whose "type" field is one of
// SCHEMA, RECORD, or STATE, written one per line. The codec here handles single
// objects; framing a sequence of them onto a byte sink is the messaging
// package's job.
package contracts
