package contracts

import "encoding/json"

// Catalog is the output of a tap's discovery mode: the ordered set of streams
// the tap can sync.
type Catalog struct {
	Streams []Stream `json:"streams"`
}

// Stream describes one discoverable stream.
type Stream struct {
	Stream      string          `json:"stream"`
	TapStreamID string          `json:"tap_stream_id"`
	Schema      json.RawMessage `json:"schema"`
	TableName   *string         `json:"table_name"`
	Metadata    []Metadata      `json:"metadata"`
}

// Metadata annotates part of a stream's schema. The breadcrumb locates which
// part the annotation applies to.
type Metadata struct {
	Metadata   json.RawMessage `json:"metadata"`
	Breadcrumb []string        `json:"breadcrumb"`
}

// ParseCatalog decodes a discovery document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &DecodeError{Reason: "discovery output is not a catalog document", Err: err}
	}
	return &c, nil
}
