// Package lifecycle implements the MCP handshake state machine: the four
// states a server cycles through (spec.md §3) and the events that drive
// transitions between them.
// file: internal/lifecycle/states.go
package lifecycle

import "github.com/dkoosis/mcpkit/internal/fsm"

// Server lifecycle states, per spec.md §3.
const (
	StateIdle         fsm.State = "IDLE"
	StateInitializing fsm.State = "INITIALIZING"
	StateReady        fsm.State = "READY"
	StateShuttingDown fsm.State = "SHUTTING_DOWN"
)

// IsOperational reports whether method calls other than ping/initialize are
// admissible while in s.
func IsOperational(s fsm.State) bool {
	return s == StateReady
}
