// Package singer implements the Singer tap/target message protocol: a
// line-delimited JSON format for moving data from an extraction process (a
// tap) to a loading process (a target), with self-describing schemas, typed
// records, and checkpointed state.
//
// The building blocks live in subpackages:
//   - contracts: the wire message types and their codec
//   - messaging: the concurrency-safe streaming writer and the target-side
//     stream processor
//   - schema: per-stream compiled schema validators
//   - transports/exec: the adapter that drives an external tap executable
//
// The Client in this package ties them together for the common case: drive a
// tap's discovery and sync modes and load the resulting stream into a target.
package singer
