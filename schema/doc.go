// Package schema maintains the target side's validation state: one compiled
// JSON schema validator per stream, registered from observed SCHEMA messages
// and consulted before each RECORD is accepted.
//
// Validators are compiled once against JSON Schema draft 4 and retained for
// the lifetime of the ValidationContext. Re-registering a known stream is a
// no-op; the originally compiled validator wins.
package schema
