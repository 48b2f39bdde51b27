package messaging

import (
	"context"

	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/schema"
)

// Tap produces a Singer message stream. Discover reports the streams the tap
// supports; Sync writes the actual SCHEMA/RECORD/STATE stream to the writer.
// Implementations may run in-process or, like transports/exec, drive an
// external executable.
type Tap interface {
	Discover(ctx context.Context, ic *contracts.InvocationContext) (*contracts.Catalog, error)
	Sync(ctx context.Context, ic *contracts.InvocationContext, w *MessageWriter) error
}

// Target consumes validated records on the load side of the protocol.
// ProcessRecord is the one capability every target must supply; records
// reach it only after passing schema validation.
type Target interface {
	ProcessRecord(ctx context.Context, record contracts.Record) error
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(ctx context.Context, record contracts.Record) error

// ProcessRecord implements Target.
func (f TargetFunc) ProcessRecord(ctx context.Context, record contracts.Record) error {
	return f(ctx, record)
}

// StateHandler is implemented by targets that care about checkpoints. Targets
// without it have state messages discarded.
type StateHandler interface {
	ProcessState(ctx context.Context, state contracts.State) error
}

// SchemaHandler is implemented by targets that want to intercept schema
// registration. The default behavior compiles and registers the schema in the
// processor's validation context; an override that still wants records
// validated must register the schema itself.
type SchemaHandler interface {
	ProcessSchema(ctx context.Context, vc *schema.ValidationContext, s contracts.Schema) error
}
