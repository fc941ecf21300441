// Package transport implements the transport abstraction of spec.md §4.8:
// a Transport reads and writes length-independent JSON-RPC frames over
// some underlying channel, and an Orchestrator runs several at once.
// file: internal/transport/transport.go
package transport

import "context"

// MaxMessageSize bounds a single JSON-RPC frame, guarding against memory
// exhaustion from a malformed or hostile peer.
const MaxMessageSize = 1024 * 1024 // 1MB.

// Dispatch is supplied by the server to a Transport: given one decoded
// frame's raw bytes, produce the raw bytes to write back, or none for a
// notification.
type Dispatch func(ctx context.Context, rawMessage []byte) (response []byte, hasResponse bool, err error)

// Transport is one communication channel a server accepts JSON-RPC traffic
// over. Implementations must be safe for concurrent use by Start/Stop from
// one goroutine while a Run loop is in progress.
type Transport interface {
	// Name identifies this transport instance for logging and the
	// orchestrator's partial-failure reporting.
	Name() string

	// Start begins accepting and dispatching messages via dispatch,
	// blocking until ctx is canceled or Stop is called. Start must return
	// promptly once its read loop observes closure.
	Start(ctx context.Context, dispatch Dispatch) error

	// Stop releases the transport's underlying resources, unblocking any
	// in-progress Start call.
	Stop() error
}
