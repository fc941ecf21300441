// Package protoerr defines the named protocol error kinds shared by the
// codec, lifecycle, gate, middleware, and dispatch layers, and maps them to
// their fixed JSON-RPC 2.0 numeric codes.
package protoerr

// file: internal/protoerr/protoerr.go

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Category groups related error kinds for logging and metrics.
type Category string

// Error categories.
const (
	CategoryFrame     Category = "frame"     // Malformed JSON-RPC frames.
	CategoryRouting   Category = "routing"   // Method lookup failures.
	CategoryLifecycle Category = "lifecycle" // Handshake/state violations.
	CategoryHandler   Category = "handler"   // User handler failures.
	CategoryMiddleware Category = "middleware" // Middleware framework failures.
	CategoryTransport Category = "transport" // Transport start/stop/IO failures.
)

// Kind is a tagged protocol error, one per row of spec.md's standard error
// code table.
type Kind string

// Standard protocol error kinds.
const (
	KindParseError           Kind = "parse_error"
	KindInvalidRequest       Kind = "invalid_request"
	KindMethodNotFound       Kind = "method_not_found"
	KindInvalidParams        Kind = "invalid_params"
	KindInternalError        Kind = "internal_error"
	KindLifecycleViolation   Kind = "lifecycle_violation"
	KindStreamTimeout        Kind = "stream_timeout"
	KindNotInitialized       Kind = "not_initialized"
	KindAfterShutdown        Kind = "after_shutdown"
	KindRateLimit            Kind = "rate_limit"
	KindAlreadyInitialized   Kind = "already_initialized"
	KindInvalidStateTransition Kind = "invalid_state_transition" // Internal-only, never on the wire.
)

// Code returns the fixed JSON-RPC numeric code for a Kind.
func (k Kind) Code() int {
	switch k {
	case KindParseError:
		return -32700
	case KindInvalidRequest, KindAlreadyInitialized:
		return -32600
	case KindMethodNotFound:
		return -32601
	case KindInvalidParams:
		return -32602
	case KindInternalError:
		return -32603
	case KindLifecycleViolation:
		return -32000
	case KindStreamTimeout:
		return -32001
	case KindNotInitialized:
		return -32002
	case KindAfterShutdown:
		return -32003
	case KindRateLimit:
		return -32004
	default:
		return -32603
	}
}

// Category returns the broad bucket a Kind belongs to.
func (k Kind) Category() Category {
	switch k {
	case KindParseError, KindInvalidRequest, KindInvalidParams:
		return CategoryFrame
	case KindMethodNotFound:
		return CategoryRouting
	case KindLifecycleViolation, KindNotInitialized, KindAfterShutdown,
		KindAlreadyInitialized, KindInvalidStateTransition:
		return CategoryLifecycle
	default:
		return CategoryHandler
	}
}

// DefaultMessage returns the spec's canonical human-readable message for a
// Kind, used when a caller does not supply its own.
func (k Kind) DefaultMessage() string {
	switch k {
	case KindParseError:
		return "Parse error"
	case KindInvalidRequest:
		return "Invalid Request"
	case KindMethodNotFound:
		return "Method not found"
	case KindInvalidParams:
		return "Invalid params"
	case KindInternalError:
		return "Internal error"
	case KindLifecycleViolation:
		return "Lifecycle violation"
	case KindStreamTimeout:
		return "Stream timeout"
	case KindNotInitialized:
		return "Server has not been initialized"
	case KindAfterShutdown:
		return "Server has shut down"
	case KindRateLimit:
		return "Rate limit exceeded"
	case KindAlreadyInitialized:
		return "Server already initialized"
	case KindInvalidStateTransition:
		return "Invalid internal state transition"
	default:
		return "Unknown error"
	}
}

// Error is the Go-value representation of a protocol error: it carries the
// Kind (hence the wire code), a specific message, and optional structured
// details. It is constructed with cockroachdb/errors.WithStack/WithProperty
// so that %+v formatting (gated on debug mode) prints a stack trace.
type Error struct {
	cause   error
	kind    Kind
	message string
	details map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap exposes the underlying cockroachdb-wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's protocol Kind.
func (e *Error) Kind() Kind { return e.kind }

// Details returns the structured data attached to the error, or nil.
func (e *Error) Details() map[string]interface{} { return e.details }

// New creates a protocol Error of the given Kind with a specific message and
// no structured details.
func New(kind Kind, message string) *Error {
	return WithDetails(kind, message, nil)
}

// WithDetails creates a protocol Error of the given Kind, message, and
// structured details map (may be nil).
func WithDetails(kind Kind, message string, details map[string]interface{}) *Error {
	if message == "" {
		message = kind.DefaultMessage()
	}
	cause := errors.WithStack(errors.WithProperty(
		errors.Newf("%s: %s", kind, message),
		"category", string(kind.Category()),
	))
	return &Error{cause: cause, kind: kind, message: message, details: details}
}

// Wrap creates a protocol Error of the given Kind that wraps an existing Go
// error as its cause, preserving the original error's message and stack via
// cockroachdb/errors.Wrap.
func Wrap(kind Kind, cause error, message string) *Error {
	if message == "" {
		message = kind.DefaultMessage()
	}
	wrapped := errors.WithProperty(
		errors.Wrap(cause, message),
		"category", string(kind.Category()),
	)
	return &Error{cause: wrapped, kind: kind, message: message}
}

// WireError is the JSON-serializable shape of a JSON-RPC error object.
type WireError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ToWireError converts an error into the JSON-RPC error object to place on
// the wire. Errors that are not *Error are treated as KindInternalError,
// with their message suppressed unless debug is true (spec.md §6, §7:
// unhandled handler failures are wrapped as InternalError with debug-gated
// data).
func ToWireError(err error, debug bool) *WireError {
	var pe *Error
	if errors.As(err, &pe) {
		we := &WireError{Code: pe.kind.Code(), Message: pe.message}
		data := map[string]interface{}{}
		for k, v := range pe.details {
			data[k] = v
		}
		if debug {
			data["stack"] = fmt.Sprintf("%+v", pe.cause)
		}
		if len(data) > 0 {
			if raw, mErr := json.Marshal(data); mErr == nil {
				we.Data = raw
			}
		}
		return we
	}

	we := &WireError{Code: KindInternalError.Code(), Message: KindInternalError.DefaultMessage()}
	if debug && err != nil {
		if raw, mErr := json.Marshal(map[string]interface{}{"stack": fmt.Sprintf("%+v", err)}); mErr == nil {
			we.Data = raw
		}
	}
	return we
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.kind == kind
	}
	return false
}
