package messaging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/singerkit/singer-go/contracts"
)

// sharedSink is the single lock-guarded buffered sink behind every clone of a
// MessageWriter. The handle count tracks how many clones are alive so that
// reclaiming the sink can refuse while another clone could still write.
type sharedSink struct {
	mu       sync.Mutex
	buf      *bufio.Writer
	sink     io.Writer
	handles  int
	poisoned bool
}

// MessageWriter frames messages onto a byte sink, one JSON object followed by
// a single newline. Clones of a writer share the same lock and the same
// buffer, so concurrent WriteMessage calls from independent owners never
// interleave within a frame; ordering across owners is not guaranteed.
//
// A writer becomes poisoned when a sink write fails partway through a frame,
// since the sink may then hold a torn message. A poisoned writer can still be
// flushed by its owner for inspection, but IntoInner refuses to hand the sink
// back.
type MessageWriter struct {
	shared   *sharedSink
	released bool
}

// NewMessageWriter creates a writer framing messages onto sink.
func NewMessageWriter(sink io.Writer) *MessageWriter {
	return &MessageWriter{
		shared: &sharedSink{
			buf:     bufio.NewWriter(sink),
			sink:    sink,
			handles: 1,
		},
	}
}

// NewStdoutWriter creates a writer framing messages onto standard output, the
// usual sink for a tap process.
func NewStdoutWriter() *MessageWriter {
	return NewMessageWriter(os.Stdout)
}

// NewBufferWriter creates a writer backed by a fresh in-memory buffer. The
// buffer is reclaimed with IntoInner.
func NewBufferWriter() *MessageWriter {
	return NewMessageWriter(&bytes.Buffer{})
}

// Clone returns a new handle on the same sink. The clone must be released
// with Release before the sink can be reclaimed through IntoInner.
func (w *MessageWriter) Clone() *MessageWriter {
	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handles++
	return &MessageWriter{shared: s}
}

// Release gives up this handle's claim on the shared sink. Releasing the same
// handle twice is a no-op. A released handle must not be used again.
func (w *MessageWriter) Release() {
	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.released {
		return
	}
	w.released = true
	s.handles--
}

// WriteMessage serializes the message and writes its bytes plus the frame
// delimiter as one uninterrupted unit. The bytes are handed to the buffered
// sink but not necessarily flushed.
func (w *MessageWriter) WriteMessage(m contracts.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}

	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.buf.Write(data); err != nil {
		s.poisoned = true
		return fmt.Errorf("write message: %w", err)
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		s.poisoned = true
		return fmt.Errorf("write frame delimiter: %w", err)
	}
	return nil
}

// WriteSchema frames a SCHEMA message.
func (w *MessageWriter) WriteSchema(s contracts.Schema) error {
	return w.WriteMessage(contracts.NewSchemaMessage(s))
}

// WriteRecord frames a RECORD message.
func (w *MessageWriter) WriteRecord(r contracts.Record) error {
	return w.WriteMessage(contracts.NewRecordMessage(r))
}

// WriteState frames a STATE message.
func (w *MessageWriter) WriteState(s contracts.State) error {
	return w.WriteMessage(contracts.NewStateMessage(s))
}

// Write copies raw bytes to the sink under the writer lock. It exists for
// transports that relay an already-framed stream byte-for-byte; framing
// correctness of the copied bytes is the producer's responsibility.
func (w *MessageWriter) Write(p []byte) (int, error) {
	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.buf.Write(p)
	if err != nil {
		s.poisoned = true
	}
	return n, err
}

// Flush forces buffered bytes through to the sink.
func (w *MessageWriter) Flush() error {
	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		s.poisoned = true
		return fmt.Errorf("flush sink: %w", err)
	}
	return nil
}

// IntoInner flushes and reclaims exclusive ownership of the underlying sink.
// It fails with ErrWriterShared while any other clone of the writer is alive,
// and with ErrWriterPoisoned after a failed write left the sink's framing
// suspect. On success the writer and all record of it are dead; the caller
// owns the sink.
func (w *MessageWriter) IntoInner() (io.Writer, error) {
	s := w.shared
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.released {
		return nil, fmt.Errorf("%w: handle already released", contracts.ErrWriterShared)
	}
	if s.handles > 1 {
		return nil, fmt.Errorf("%w: %d handles outstanding", contracts.ErrWriterShared, s.handles)
	}
	if s.poisoned {
		return nil, contracts.ErrWriterPoisoned
	}
	if err := s.buf.Flush(); err != nil {
		s.poisoned = true
		return nil, fmt.Errorf("flush before reclaim: %w", err)
	}

	w.released = true
	s.handles = 0
	return s.sink, nil
}
