package messaging

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/schema"
)

// StreamProcessor drives the target side of the protocol: it reads a
// newline-delimited message stream, registers schemas in its validation
// context, gates records through it, and hands validated messages to the
// target in arrival order.
type StreamProcessor struct {
	context *schema.ValidationContext
	logger  *slog.Logger
	metrics *processorMetrics
}

// ProcessorOption configures the StreamProcessor.
type ProcessorOption func(*StreamProcessor)

// WithProcessorLogger sets the logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *StreamProcessor) {
		p.logger = logger
	}
}

// WithValidationContext supplies a pre-populated validation context instead
// of a fresh one.
func WithValidationContext(vc *schema.ValidationContext) ProcessorOption {
	return func(p *StreamProcessor) {
		p.context = vc
	}
}

// WithProcessorMetrics registers message counters with reg.
func WithProcessorMetrics(reg prometheus.Registerer) ProcessorOption {
	return func(p *StreamProcessor) {
		p.metrics = newProcessorMetrics(reg)
	}
}

// NewStreamProcessor creates a stream processor.
func NewStreamProcessor(options ...ProcessorOption) *StreamProcessor {
	p := &StreamProcessor{
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.context == nil {
		p.context = schema.NewValidationContext()
	}
	return p
}

// Context returns the processor's validation context.
func (p *StreamProcessor) Context() *schema.ValidationContext {
	return p.context
}

// Process reads r as a sequence of newline-delimited messages and dispatches
// each in arrival order. It aborts on the first decode, validation, or
// handler error; messages after the failing one are never delivered. The
// returned error reports how many messages were processed before the failure.
func (p *StreamProcessor) Process(ctx context.Context, r io.Reader, target Target) error {
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	dec := json.NewDecoder(bufio.NewReader(r))
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processed %d messages before cancellation: %w", processed, err)
		}

		var msg contracts.Message
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			p.metrics.observeFailure()
			return fmt.Errorf("processed %d messages before failure: %w", processed, err)
		}

		if err := p.dispatch(ctx, msg, target); err != nil {
			p.metrics.observeFailure()
			return fmt.Errorf("processed %d messages before failure: %w", processed, err)
		}

		p.metrics.observeProcessed(string(msg.Type()))
		processed++
	}

	p.logger.Debug("message stream drained", "processed", processed)
	return nil
}

func (p *StreamProcessor) dispatch(ctx context.Context, msg contracts.Message, target Target) error {
	switch {
	case msg.IsSchema():
		s, _ := msg.AsSchema()
		if handler, ok := target.(SchemaHandler); ok {
			return handler.ProcessSchema(ctx, p.context, *s)
		}
		if p.context.HasSchema(s.Stream) {
			return nil
		}
		p.logger.Debug("registering stream schema", "stream", s.Stream)
		return p.context.InsertSchema(*s)

	case msg.IsRecord():
		rec, _ := msg.AsRecord()
		if err := p.context.ValidateRecord(*rec); err != nil {
			return err
		}
		return target.ProcessRecord(ctx, *rec)

	case msg.IsState():
		state, _ := msg.AsState()
		if handler, ok := target.(StateHandler); ok {
			return handler.ProcessState(ctx, *state)
		}
		p.logger.Debug("discarding state checkpoint; target has no state handler")
		return nil

	default:
		return contracts.ErrEmptyMessage
	}
}
