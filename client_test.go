package singer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleSchema = `{
	"$schema": "http://json-schema.org/schema#",
	"title": "Person",
	"type": "object",
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"name": {"type": "string"}
	},
	"required": ["id", "name"]
}`

// peopleTap is an in-process tap emitting a fixed schema and four records.
type peopleTap struct{}

func (peopleTap) Discover(context.Context, *contracts.InvocationContext) (*contracts.Catalog, error) {
	return &contracts.Catalog{
		Streams: []contracts.Stream{{
			Stream:      "people",
			TapStreamID: "people",
			Schema:      json.RawMessage(peopleSchema),
		}},
	}, nil
}

func (peopleTap) Sync(_ context.Context, _ *contracts.InvocationContext, w *messaging.MessageWriter) error {
	if err := w.WriteSchema(contracts.Schema{
		Stream:        "people",
		Schema:        json.RawMessage(peopleSchema),
		KeyProperties: []string{"id"},
	}); err != nil {
		return err
	}
	for _, name := range []string{"Vincent", "Jules", "Mia", "Marsellus"} {
		payload, err := json.Marshal(map[string]any{"id": len(name), "name": name})
		if err != nil {
			return err
		}
		if err := w.WriteRecord(contracts.NewRecord("people", payload)); err != nil {
			return err
		}
	}
	return w.WriteState(contracts.State{Value: json.RawMessage(`{"people":{"synced":4}}`)})
}

type collectingTarget struct {
	records []contracts.Record
}

func (t *collectingTarget) ProcessRecord(_ context.Context, record contracts.Record) error {
	t.records = append(t.records, record)
	return nil
}

func TestClient(t *testing.T) {
	t.Run("rejects a nil tap", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("rejects an empty exec path", func(t *testing.T) {
		_, err := NewExecClient("")
		assert.Error(t, err)
	})

	t.Run("discover returns the tap's catalog", func(t *testing.T) {
		client, err := NewClient(peopleTap{})
		require.NoError(t, err)

		catalog, err := client.Discover(context.Background(), contracts.NewInvocationContext("/etc/tap/config.json"))
		require.NoError(t, err)
		require.Len(t, catalog.Streams, 1)
		assert.Equal(t, "people", catalog.Streams[0].TapStreamID)
	})

	t.Run("sync frames and flushes the tap's stream", func(t *testing.T) {
		client, err := NewClient(peopleTap{})
		require.NoError(t, err)

		var sink bytes.Buffer
		require.NoError(t, client.Sync(context.Background(), contracts.NewInvocationContext("/etc/tap/config.json"), &sink))

		lines := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "\n")
		require.Len(t, lines, 6) // schema + 4 records + state
		for _, line := range lines {
			var msg contracts.Message
			require.NoError(t, json.Unmarshal([]byte(line), &msg))
		}
	})

	t.Run("run moves records from tap to target end to end", func(t *testing.T) {
		client, err := NewClient(peopleTap{})
		require.NoError(t, err)

		target := &collectingTarget{}
		require.NoError(t, client.Run(context.Background(), contracts.NewInvocationContext("/etc/tap/config.json"), target))

		require.Len(t, target.records, 4)
		var first map[string]any
		require.NoError(t, json.Unmarshal(target.records[0].Record, &first))
		assert.Equal(t, "Vincent", first["name"])
	})

	t.Run("load aborts when a record violates its schema", func(t *testing.T) {
		client, err := NewClient(peopleTap{})
		require.NoError(t, err)

		stream := `{"type":"SCHEMA","stream":"people","schema":` + peopleSchema + `,"key_properties":["id"]}` + "\n" +
			`{"type":"RECORD","stream":"people","record":{"id":0,"name":"x"}}` + "\n"

		target := &collectingTarget{}
		err = client.Load(context.Background(), strings.NewReader(stream), target)
		require.Error(t, err)

		var validationErr *contracts.SchemaValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Empty(t, target.records)
	})
}
