package contracts

import (
	"errors"
	"fmt"
)

var (
	// Message and codec errors
	ErrEmptyMessage = errors.New("message holds no variant")

	// Invocation option errors. The two kinds stay distinct so callers can
	// tell a typo from a missing setting.
	ErrInvalidOption = errors.New("invocation option is not recognized")
	ErrOptionNotSet  = errors.New("invocation option is not set")

	// Schema registry errors
	ErrSchemaNotRegistered = errors.New("no schema registered for stream")
	ErrSchemaCompile       = errors.New("schema document could not be compiled")

	// Writer reclaim errors
	ErrWriterShared   = errors.New("message writer is still shared")
	ErrWriterPoisoned = errors.New("message writer was poisoned by a failed write")
)

// ExecError reports that a tap process could not be started at all. It is
// distinct from CommandError, which means the process ran and exited
// unsuccessfully.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute tap %s: %v", e.Path, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// CommandError reports that a tap process started but exited unsuccessfully.
// Stderr holds whatever diagnostic the process left behind: the stringified
// stderr JSON for discovery, the last non-empty stderr line for sync.
type CommandError struct {
	Path     string
	ExitCode int  // -1 when the process was killed by a signal
	Exited   bool // false when no exit code was observed
	Stderr   string
}

func (e *CommandError) Error() string {
	if !e.Exited {
		return fmt.Sprintf("tap %s terminated without an exit code: %s", e.Path, e.Stderr)
	}
	return fmt.Sprintf("tap %s exited with code %d: %s", e.Path, e.ExitCode, e.Stderr)
}

// ConversionError reports narrowing a Message to a variant it does not hold.
type ConversionError struct {
	Expected MessageType
	Actual   MessageType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid conversion: expected %s, found %s", e.Expected, e.Actual)
}

// DecodeError reports malformed wire data: JSON that does not parse, an
// unknown discriminator, or an object missing required variant fields.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode: %s: %v", e.Reason, e.Err)
	}
	return "failed to decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaValidationError reports a record that failed validation against its
// stream's registered schema. Field and Description name the first violated
// constraint.
type SchemaValidationError struct {
	Stream      string
	Field       string
	Description string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("record on stream %q failed schema validation: %s: %s", e.Stream, e.Field, e.Description)
}
