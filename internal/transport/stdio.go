// file: internal/transport/stdio.go
package transport

import (
	"bufio"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// StdioTransport reads newline-delimited JSON-RPC frames from r and writes
// newline-delimited responses to w — the NDJSON convention MCP stdio
// servers use, one JSON value per line (spec.md §4.8).
type StdioTransport struct {
	r       *bufio.Scanner
	w       io.Writer
	writeMu sync.Mutex
	logger  logging.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewStdioTransport builds a StdioTransport over r/w. r is typically
// os.Stdin and w os.Stdout.
func NewStdioTransport(r io.Reader, w io.Writer, logger logging.Logger) *StdioTransport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	return &StdioTransport{
		r:      scanner,
		w:      w,
		logger: logger.WithField("component", "stdio_transport"),
		stopCh: make(chan struct{}),
	}
}

// Name identifies this transport.
func (t *StdioTransport) Name() string { return "stdio" }

// Start reads one line per iteration, hands it to dispatch, and writes the
// response line, until ctx is canceled, Stop is called, or the reader is
// exhausted (EOF). Each line is processed on the calling goroutine: the
// stdio convention is one request in flight per line, matching the
// teacher's original "one task that yields per line" read loop. A second
// call to Start on the same instance returns an error rather than racing
// a second goroutine against the same underlying scanner (spec.md §4.8's
// STOPPED→STARTING→RUNNING transition only fires once per instance).
func (t *StdioTransport) Start(ctx context.Context, dispatch Dispatch) error {
	if !t.started.CompareAndSwap(false, true) {
		return protoerr.New(protoerr.KindInternalError, "stdio transport already started")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		for t.r.Scan() {
			select {
			case lines <- t.r.Text():
			case <-t.stopCh:
				return
			}
		}
		scanErr <- t.r.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.stopCh:
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			// A blank line is not a valid JSON-RPC frame either; let
			// dispatch's decode-error path answer it with a ParseError
			// rather than dropping it silently (spec.md §4.8).
			t.handleLine(ctx, dispatch, line)
		}
	}
}

func (t *StdioTransport) handleLine(ctx context.Context, dispatch Dispatch, line string) {
	resp, hasResponse, err := dispatch(ctx, []byte(line))
	if err != nil {
		t.logger.Error("dispatch failed", "error", err)
	}
	if !hasResponse {
		return
	}
	if writeErr := t.writeLine(ctx, resp); writeErr != nil {
		t.logger.Error("failed to write response", "error", writeErr)
	}
}

// writeLine performs a non-blocking, synchronized stream write of one
// response line (spec.md §4.8's "writes are non-blocking stream writes").
func (t *StdioTransport) writeLine(_ context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(data); err != nil {
		return protoerr.Wrap(protoerr.KindInternalError, err, "stdio write failed")
	}
	if _, err := t.w.Write([]byte("\n")); err != nil {
		return protoerr.Wrap(protoerr.KindInternalError, err, "stdio write failed")
	}
	return nil
}

// Stop unblocks Start's read loop. Closing stdin is the caller's
// responsibility; Stop only signals the loop to exit on its next
// opportunity, since a blocked bufio.Scanner.Scan() cannot be interrupted
// from outside.
func (t *StdioTransport) Stop() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	return nil
}
