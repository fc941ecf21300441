// Package gate implements the request gate of spec.md §4.3: a pure
// classification of inbound JSON-RPC methods against the current lifecycle
// state, with no side effects, safe to call from any middleware.
// file: internal/gate/gate.go
package gate

import (
	"github.com/dkoosis/mcpkit/internal/fsm"
	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// Class is one of the three method classifications the gate recognizes.
type Class string

const (
	AlwaysAllowed  Class = "ALWAYS_ALLOWED"
	Initialization Class = "INITIALIZATION"
	Operational    Class = "OPERATIONAL"
)

var alwaysAllowed = map[string]bool{
	"ping":                    true,
	"notifications/cancelled": true,
	"notifications/progress":  true,
}

var initializationMethods = map[string]bool{
	"initialize":                true,
	"notifications/initialized": true,
}

// Classify maps a method name into exactly one Class. Unknown methods fall
// into Operational, matching spec.md §4.3.
func Classify(method string) Class {
	if alwaysAllowed[method] {
		return AlwaysAllowed
	}
	if initializationMethods[method] {
		return Initialization
	}
	return Operational
}

// Admit decides whether method is admissible given the current lifecycle
// state and the one-shot hasBeenInitialized flag. It returns nil when
// admitted, or a protoerr.Error carrying the wire code/message/data the
// caller should return to the client.
func Admit(state fsm.State, method string, everInitialized bool) *protoerr.Error {
	switch Classify(method) {
	case AlwaysAllowed:
		return nil

	case Initialization:
		if method == "initialize" {
			switch state {
			case lifecycle.StateInitializing, lifecycle.StateReady:
				return denied(protoerr.KindAlreadyInitialized, state, method)
			default:
				return nil
			}
		}
		// notifications/initialized: a transition signal the lifecycle
		// manager consumes directly; the gate never rejects it, including
		// the READY case where it is allowed but ignored.
		return nil

	default: // Operational
		switch state {
		case lifecycle.StateReady:
			return nil
		case lifecycle.StateIdle:
			if everInitialized {
				return denied(protoerr.KindAfterShutdown, state, method)
			}
			return denied(protoerr.KindNotInitialized, state, method)
		default: // INITIALIZING, SHUTTING_DOWN
			return denied(protoerr.KindLifecycleViolation, state, method)
		}
	}
}

func denied(kind protoerr.Kind, state fsm.State, method string) *protoerr.Error {
	return protoerr.WithDetails(kind, "", map[string]interface{}{
		"currentState": string(state),
		"operation":    method,
	})
}
