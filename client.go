package singer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/messaging"
	exectap "github.com/singerkit/singer-go/transports/exec"
)

// Client provides the main entry point for singer-go: it binds a tap to the
// streaming writer on the extract side and to the stream processor on the
// load side.
type Client struct {
	tap           messaging.Tap
	logger        *slog.Logger
	processorOpts []messaging.ProcessorOption
}

type clientConfig struct {
	logger        *slog.Logger
	processorOpts []messaging.ProcessorOption
}

// ClientOption configures the Client.
type ClientOption func(*clientConfig)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithProcessorOptions forwards options to the stream processors the client
// builds for Load.
func WithProcessorOptions(opts ...messaging.ProcessorOption) ClientOption {
	return func(cfg *clientConfig) {
		cfg.processorOpts = append(cfg.processorOpts, opts...)
	}
}

// NewClient creates a client around an in-process tap implementation.
func NewClient(tap messaging.Tap, options ...ClientOption) (*Client, error) {
	if tap == nil {
		return nil, fmt.Errorf("tap cannot be nil")
	}

	cfg := &clientConfig{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	return &Client{
		tap:           tap,
		logger:        cfg.logger,
		processorOpts: cfg.processorOpts,
	}, nil
}

// NewExecClient creates a client that drives an external tap executable.
func NewExecClient(path string, options ...ClientOption) (*Client, error) {
	if path == "" {
		return nil, fmt.Errorf("tap path cannot be empty")
	}

	cfg := &clientConfig{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	tap := exectap.NewTap(path, exectap.WithLogger(cfg.logger))
	return &Client{
		tap:           tap,
		logger:        cfg.logger,
		processorOpts: cfg.processorOpts,
	}, nil
}

// Discover runs the tap in discovery mode and returns its catalog.
func (c *Client) Discover(ctx context.Context, ic *contracts.InvocationContext) (*contracts.Catalog, error) {
	return c.tap.Discover(ctx, ic)
}

// Sync runs the tap in sync mode, framing its message stream onto sink. The
// stream is flushed before Sync returns.
func (c *Client) Sync(ctx context.Context, ic *contracts.InvocationContext, sink io.Writer) error {
	w := messaging.NewMessageWriter(sink)
	if err := c.tap.Sync(ctx, ic, w); err != nil {
		return err
	}
	return w.Flush()
}

// Load processes a message stream from r into target, validating every record
// against the schemas observed on the stream.
func (c *Client) Load(ctx context.Context, r io.Reader, target messaging.Target) error {
	opts := append([]messaging.ProcessorOption{messaging.WithProcessorLogger(c.logger)}, c.processorOpts...)
	processor := messaging.NewStreamProcessor(opts...)
	return processor.Process(ctx, r, target)
}

// Run syncs the tap into an in-memory buffer and loads the buffered stream
// into target. Both halves are synchronous; the sync completes before loading
// begins.
func (c *Client) Run(ctx context.Context, ic *contracts.InvocationContext, target messaging.Target) error {
	var stream bytes.Buffer
	if err := c.Sync(ctx, ic, &stream); err != nil {
		return err
	}
	return c.Load(ctx, &stream, target)
}
