package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies which variant of the Message union is active.
// On the wire it is the uppercase "type" discriminator field.
type MessageType string

const (
	MessageTypeSchema MessageType = "SCHEMA"
	MessageTypeRecord MessageType = "RECORD"
	MessageTypeState  MessageType = "STATE"
)

// Schema announces the shape of the records that follow on a stream.
type Schema struct {
	Stream             string          `json:"stream"`
	Schema             json.RawMessage `json:"schema"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties"`
}

// Record carries one extracted row for a stream.
type Record struct {
	Stream        string          `json:"stream"`
	Record        json.RawMessage `json:"record"`
	Version       *string         `json:"version"`
	TimeExtracted *time.Time      `json:"time_extracted"`
}

// NewRecord creates a Record with no version or extraction timestamp.
func NewRecord(stream string, payload json.RawMessage) Record {
	return Record{Stream: stream, Record: payload}
}

// State is an opaque checkpoint blob. The engine imposes no structure on the
// value; it belongs to whichever tap wrote it.
type State struct {
	Value json.RawMessage `json:"value"`
}

// Message is a closed tagged union over Schema, Record, and State. Exactly one
// variant is active at a time; the zero Message holds none and cannot be
// encoded.
type Message struct {
	schema *Schema
	record *Record
	state  *State
}

// NewSchemaMessage wraps a Schema in a Message.
func NewSchemaMessage(s Schema) Message {
	return Message{schema: &s}
}

// NewRecordMessage wraps a Record in a Message.
func NewRecordMessage(r Record) Message {
	return Message{record: &r}
}

// NewStateMessage wraps a State in a Message.
func NewStateMessage(s State) Message {
	return Message{state: &s}
}

// Type returns the active variant's discriminator, or "" for the zero Message.
func (m Message) Type() MessageType {
	switch {
	case m.schema != nil:
		return MessageTypeSchema
	case m.record != nil:
		return MessageTypeRecord
	case m.state != nil:
		return MessageTypeState
	default:
		return ""
	}
}

// IsSchema reports whether the message holds a Schema.
func (m Message) IsSchema() bool { return m.schema != nil }

// IsRecord reports whether the message holds a Record.
func (m Message) IsRecord() bool { return m.record != nil }

// IsState reports whether the message holds a State.
func (m Message) IsState() bool { return m.state != nil }

// AsSchema returns the Schema variant if active.
func (m Message) AsSchema() (*Schema, bool) {
	return m.schema, m.schema != nil
}

// AsRecord returns the Record variant if active.
func (m Message) AsRecord() (*Record, bool) {
	return m.record, m.record != nil
}

// AsState returns the State variant if active.
func (m Message) AsState() (*State, bool) {
	return m.state, m.state != nil
}

// Schema narrows the message to its Schema variant, failing with a
// ConversionError when a different variant is active.
func (m Message) Schema() (Schema, error) {
	if m.schema == nil {
		return Schema{}, &ConversionError{Expected: MessageTypeSchema, Actual: m.Type()}
	}
	return *m.schema, nil
}

// Record narrows the message to its Record variant, failing with a
// ConversionError when a different variant is active.
func (m Message) Record() (Record, error) {
	if m.record == nil {
		return Record{}, &ConversionError{Expected: MessageTypeRecord, Actual: m.Type()}
	}
	return *m.record, nil
}

// State narrows the message to its State variant, failing with a
// ConversionError when a different variant is active.
func (m Message) State() (State, error) {
	if m.state == nil {
		return State{}, &ConversionError{Expected: MessageTypeState, Actual: m.Type()}
	}
	return *m.state, nil
}

// Wire wrappers. Embedding keeps the variant fields flat next to the
// discriminator, matching the Singer line format.
type schemaWire struct {
	Type MessageType `json:"type"`
	Schema
}

type recordWire struct {
	Type MessageType `json:"type"`
	Record
}

type stateWire struct {
	Type MessageType `json:"type"`
	State
}

// MarshalJSON encodes the active variant as a single JSON object with an
// uppercase "type" discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	switch {
	case m.schema != nil:
		return json.Marshal(schemaWire{Type: MessageTypeSchema, Schema: *m.schema})
	case m.record != nil:
		return json.Marshal(recordWire{Type: MessageTypeRecord, Record: *m.record})
	case m.state != nil:
		return json.Marshal(stateWire{Type: MessageTypeState, State: *m.state})
	default:
		return nil, ErrEmptyMessage
	}
}

// UnmarshalJSON decodes a single wire object, rejecting unknown discriminators
// and objects missing the active variant's required fields.
func (m *Message) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return &DecodeError{Reason: "message is not a JSON object", Err: err}
	}

	switch probe.Type {
	case MessageTypeSchema:
		var w schemaWire
		if err := json.Unmarshal(data, &w); err != nil {
			return &DecodeError{Reason: "malformed SCHEMA message", Err: err}
		}
		if err := w.Schema.validateWire(); err != nil {
			return err
		}
		*m = Message{schema: &w.Schema}
	case MessageTypeRecord:
		var w recordWire
		if err := json.Unmarshal(data, &w); err != nil {
			return &DecodeError{Reason: "malformed RECORD message", Err: err}
		}
		if err := w.Record.validateWire(); err != nil {
			return err
		}
		*m = Message{record: &w.Record}
	case MessageTypeState:
		var w stateWire
		if err := json.Unmarshal(data, &w); err != nil {
			return &DecodeError{Reason: "malformed STATE message", Err: err}
		}
		if w.State.Value == nil {
			return &DecodeError{Reason: "STATE message is missing the value field"}
		}
		*m = Message{state: &w.State}
	default:
		return &DecodeError{Reason: fmt.Sprintf("unknown message type %q", probe.Type)}
	}
	return nil
}

func (s *Schema) validateWire() error {
	if s.Stream == "" {
		return &DecodeError{Reason: "SCHEMA message has an empty stream name"}
	}
	if s.Schema == nil {
		return &DecodeError{Reason: fmt.Sprintf("SCHEMA message for stream %q is missing the schema document", s.Stream)}
	}
	if s.KeyProperties == nil {
		return &DecodeError{Reason: fmt.Sprintf("SCHEMA message for stream %q is missing key_properties", s.Stream)}
	}
	return nil
}

func (r *Record) validateWire() error {
	if r.Stream == "" {
		return &DecodeError{Reason: "RECORD message has an empty stream name"}
	}
	if r.Record == nil {
		return &DecodeError{Reason: fmt.Sprintf("RECORD message for stream %q is missing the record payload", r.Stream)}
	}
	return nil
}
