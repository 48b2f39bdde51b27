package messaging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/singerkit/singer-go/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateMessage(value string) contracts.Message {
	return contracts.NewStateMessage(contracts.State{Value: json.RawMessage(value)})
}

// failingSink fails every write after the first failAfter bytes.
type failingSink struct {
	failAfter int
	written   int
}

func (s *failingSink) Write(p []byte) (int, error) {
	if s.written >= s.failAfter {
		return 0, errors.New("sink is full")
	}
	s.written += len(p)
	return len(p), nil
}

func TestWriteMessage(t *testing.T) {
	t.Run("writes one JSON object per line", func(t *testing.T) {
		w := NewBufferWriter()

		require.NoError(t, w.WriteMessage(stateMessage(`"inner"`)))
		require.NoError(t, w.WriteMessage(stateMessage(`"inner"`)))

		sink, err := w.IntoInner()
		require.NoError(t, err)
		buf := sink.(*bytes.Buffer)

		expected := `{"type":"STATE","value":"inner"}` + "\n"
		assert.Equal(t, expected+expected, buf.String())
	})

	t.Run("emits exactly one newline per message", func(t *testing.T) {
		w := NewBufferWriter()

		// A payload whose raw bytes contain newlines; serialization must
		// compact them away so a frame never spans lines.
		pretty := json.RawMessage("{\n  \"id\": 1,\n  \"name\": \"Vincent\"\n}")
		require.NoError(t, w.WriteRecord(contracts.NewRecord("people", pretty)))
		require.NoError(t, w.WriteState(contracts.State{Value: json.RawMessage(`1`)}))
		require.NoError(t, w.WriteSchema(contracts.Schema{
			Stream:        "people",
			Schema:        json.RawMessage(`{}`),
			KeyProperties: []string{"id"},
		}))

		sink, err := w.IntoInner()
		require.NoError(t, err)
		out := sink.(*bytes.Buffer).String()

		assert.Equal(t, 3, strings.Count(out, "\n"))
		for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			assert.True(t, json.Valid([]byte(line)), "each line must be a complete JSON object: %q", line)
		}
	})

	t.Run("rejects the zero message", func(t *testing.T) {
		w := NewBufferWriter()

		err := w.WriteMessage(contracts.Message{})
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrEmptyMessage)
	})
}

func TestConcurrentWriters(t *testing.T) {
	t.Run("clones never interleave within a frame", func(t *testing.T) {
		const writers = 8
		const perWriter = 50

		w := NewBufferWriter()
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			clone := w.Clone()
			wg.Add(1)
			go func(id int, cw *MessageWriter) {
				defer wg.Done()
				defer cw.Release()
				for j := 0; j < perWriter; j++ {
					payload := fmt.Sprintf(`{"writer":%d,"seq":%d}`, id, j)
					assert.NoError(t, cw.WriteRecord(contracts.NewRecord("people", json.RawMessage(payload))))
				}
			}(i, clone)
		}
		wg.Wait()

		sink, err := w.IntoInner()
		require.NoError(t, err)
		out := sink.(*bytes.Buffer).String()

		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		require.Len(t, lines, writers*perWriter)
		for _, line := range lines {
			var msg contracts.Message
			require.NoError(t, json.Unmarshal([]byte(line), &msg), "corrupted frame: %q", line)
			assert.True(t, msg.IsRecord())
		}
	})
}

func TestIntoInner(t *testing.T) {
	t.Run("fails while a clone is alive", func(t *testing.T) {
		w := NewBufferWriter()
		require.NoError(t, w.WriteMessage(stateMessage(`1`)))
		clone := w.Clone()

		sink, err := w.IntoInner()
		assert.Nil(t, sink)
		assert.ErrorIs(t, err, contracts.ErrWriterShared)

		// Releasing the clone restores reclaimability.
		clone.Release()
		sink, err = w.IntoInner()
		require.NoError(t, err)
		assert.Equal(t, `{"type":"STATE","value":1}`+"\n", sink.(*bytes.Buffer).String())
	})

	t.Run("double release of a clone does not under-count", func(t *testing.T) {
		w := NewBufferWriter()
		clone := w.Clone()
		other := w.Clone()

		clone.Release()
		clone.Release()

		_, err := w.IntoInner()
		assert.ErrorIs(t, err, contracts.ErrWriterShared)

		other.Release()
		_, err = w.IntoInner()
		assert.NoError(t, err)
	})

	t.Run("fails after a poisoning write failure", func(t *testing.T) {
		w := NewMessageWriter(&failingSink{failAfter: 0})
		require.NoError(t, w.WriteMessage(stateMessage(`1`)))

		err := w.Flush()
		require.Error(t, err)

		_, err = w.IntoInner()
		assert.ErrorIs(t, err, contracts.ErrWriterPoisoned)
	})

	t.Run("fails on a released handle", func(t *testing.T) {
		w := NewBufferWriter()
		clone := w.Clone()
		clone.Release()

		_, err := clone.IntoInner()
		assert.ErrorIs(t, err, contracts.ErrWriterShared)
	})
}

func TestRawWrite(t *testing.T) {
	t.Run("passes bytes through unmodified", func(t *testing.T) {
		w := NewBufferWriter()

		frames := `{"type":"STATE","value":1}` + "\n" + `{"type":"STATE","value":2}` + "\n"
		n, err := w.Write([]byte(frames))
		require.NoError(t, err)
		assert.Equal(t, len(frames), n)

		sink, err := w.IntoInner()
		require.NoError(t, err)
		assert.Equal(t, frames, sink.(*bytes.Buffer).String())
	})
}
