package exec

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	osexec "os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/messaging"
)

// fallbackDiagnostic is surfaced when a tap exits unsuccessfully without
// writing anything usable to stderr.
const fallbackDiagnostic = "the tap process exited with an error but wrote nothing to stderr"

// Tap runs an external program that implements the tap side of the protocol.
// The program is resolved the way os/exec resolves commands: an absolute path
// is used as-is, anything else is searched on PATH.
type Tap struct {
	path   string
	logger *slog.Logger
}

// TapOption configures the Tap.
type TapOption func(*Tap)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TapOption {
	return func(t *Tap) {
		t.logger = logger
	}
}

// NewTap creates an adapter around the tap executable at path.
func NewTap(path string, options ...TapOption) *Tap {
	t := &Tap{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Path returns the configured executable path.
func (t *Tap) Path() string { return t.path }

// Discover runs the tap in discovery mode: `<tap> --config <path> --discover`.
// On success the tap's stdout is parsed as a Catalog. On nonzero exit the
// tap's stderr is parsed as a JSON value and surfaced through a CommandError.
// A process that never started fails with an ExecError instead.
func (t *Tap) Discover(ctx context.Context, ic *contracts.InvocationContext) (*contracts.Catalog, error) {
	if ic == nil {
		return nil, fmt.Errorf("invocation context cannot be nil")
	}
	config, err := ic.ConfigPath()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	t.logger.Debug("running tap discovery", "tap", t.path, "runId", runID)

	cmd := osexec.CommandContext(ctx, t.path, "--config", config, "--discover")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &contracts.ExecError{Path: t.path, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *osexec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("waiting for tap %s: %w", t.path, err)
		}
		detail, derr := stringifyStderr(stderr.Bytes())
		if derr != nil {
			return nil, derr
		}
		return nil, &contracts.CommandError{
			Path:     t.path,
			ExitCode: exitErr.ExitCode(),
			Exited:   exitErr.Exited(),
			Stderr:   detail,
		}
	}

	catalog, err := contracts.ParseCatalog(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	t.logger.Info("tap discovery complete",
		"tap", t.path,
		"runId", runID,
		"streams", len(catalog.Streams),
	)
	return catalog, nil
}

// Sync runs the tap in sync mode and copies its stdout byte-for-byte into the
// writer. The copy is not message-aware: framing correctness of the relayed
// stream is the tap's responsibility. On nonzero exit the last non-empty
// stderr line is surfaced, or a fixed diagnostic when stderr was empty.
//
// The copy runs until the tap's stdout reaches EOF, and only then is the exit
// status collected. A tap that exits while something else holds its stdout
// open (an inherited descriptor, say) stalls the copy until ctx is canceled.
func (t *Tap) Sync(ctx context.Context, ic *contracts.InvocationContext, w *messaging.MessageWriter) error {
	if ic == nil {
		return fmt.Errorf("invocation context cannot be nil")
	}
	if w == nil {
		return fmt.Errorf("writer cannot be nil")
	}
	config, err := ic.ConfigPath()
	if err != nil {
		return err
	}

	args := []string{"--config", config}
	for _, name := range []string{contracts.OptionCatalog, contracts.OptionState, contracts.OptionProperties} {
		if path, err := ic.Option(name); err == nil {
			args = append(args, "--"+name, path)
		}
	}

	runID := uuid.NewString()
	t.logger.Debug("starting tap sync", "tap", t.path, "args", args, "runId", runID)

	cmd := osexec.CommandContext(ctx, t.path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &contracts.ExecError{Path: t.path, Err: err}
	}

	copied, copyErr := io.Copy(w, stdout)
	waitErr := cmd.Wait()

	if copyErr != nil {
		return fmt.Errorf("copying tap output: %w", copyErr)
	}
	if waitErr != nil {
		var exitErr *osexec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("waiting for tap %s: %w", t.path, waitErr)
		}
		return &contracts.CommandError{
			Path:     t.path,
			ExitCode: exitErr.ExitCode(),
			Exited:   exitErr.Exited(),
			Stderr:   lastStderrLine(stderr.Bytes()),
		}
	}

	t.logger.Info("tap sync complete",
		"tap", t.path,
		"runId", runID,
		"bytes", copied,
	)
	return nil
}

// stringifyStderr parses discovery-mode stderr as a JSON value and returns it
// re-serialized, per the tap CLI contract.
func stringifyStderr(data []byte) (string, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return "", &contracts.DecodeError{Reason: "tap stderr is not a JSON value", Err: err}
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("re-serialize tap stderr: %w", err)
	}
	return string(out), nil
}

// lastStderrLine returns the last non-empty stderr line, or the fixed
// fallback diagnostic when there is none.
func lastStderrLine(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	last := ""
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if last == "" {
		return fallbackDiagnostic
	}
	return last
}
