package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/singerkit/singer-go/contracts"
	"github.com/xeipuuv/gojsonschema"
)

// entry pairs the raw schema document with its compiled form. The two are
// independently owned; the compiled schema keeps no reference into the
// document bytes.
type entry struct {
	document json.RawMessage
	compiled *gojsonschema.Schema
}

// ValidationContext holds one compiled validator per stream name and gates
// records against it. Safe for concurrent use.
type ValidationContext struct {
	mu      sync.RWMutex
	streams map[string]*entry
}

// NewValidationContext creates an empty validation context.
func NewValidationContext() *ValidationContext {
	return &ValidationContext{
		streams: make(map[string]*entry),
	}
}

// HasSchema reports whether a validator is registered for the stream.
func (c *ValidationContext) HasSchema(stream string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.streams[stream]
	return ok
}

// InsertSchema compiles the schema document and stores the validator keyed by
// stream name. Registering an already-known stream is a no-op that retains the
// originally compiled validator.
func (c *ValidationContext) InsertSchema(s contracts.Schema) error {
	if s.Stream == "" {
		return fmt.Errorf("stream name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.streams[s.Stream]; ok {
		return nil
	}

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft4
	loader.AutoDetect = false

	compiled, err := loader.Compile(gojsonschema.NewBytesLoader(s.Schema))
	if err != nil {
		return fmt.Errorf("%w: stream %s: %v", contracts.ErrSchemaCompile, s.Stream, err)
	}

	document := make(json.RawMessage, len(s.Schema))
	copy(document, s.Schema)

	c.streams[s.Stream] = &entry{document: document, compiled: compiled}
	return nil
}

// ValidateRecord checks the record's payload against its stream's registered
// schema. It fails with ErrSchemaNotRegistered when no schema is known for the
// stream, and with a SchemaValidationError naming the first violated
// constraint when the payload is invalid.
func (c *ValidationContext) ValidateRecord(r contracts.Record) error {
	c.mu.RLock()
	e, ok := c.streams[r.Stream]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrSchemaNotRegistered, r.Stream)
	}

	result, err := e.compiled.Validate(gojsonschema.NewBytesLoader(r.Record))
	if err != nil {
		return &contracts.DecodeError{Reason: fmt.Sprintf("record payload for stream %q is not loadable", r.Stream), Err: err}
	}

	if !result.Valid() {
		first := result.Errors()[0]
		return &contracts.SchemaValidationError{
			Stream:      r.Stream,
			Field:       first.Field(),
			Description: first.Description(),
		}
	}
	return nil
}

// SchemaDocument returns the raw schema document registered for the stream.
func (c *ValidationContext) SchemaDocument(stream string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.streams[stream]
	if !ok {
		return nil, false
	}
	return e.document, true
}

// Streams returns the names of all registered streams.
func (c *ValidationContext) Streams() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.streams))
	for name := range c.streams {
		names = append(names, name)
	}
	return names
}
