// Package jsonrpc implements the JSON-RPC 2.0 wire format used by the MCP
// core: request/notification/response framing, and the decode/encode codec.
// file: internal/jsonrpc/types.go
package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// Version is the JSON-RPC version string.
const Version = "2.0"

// Message is the union of every shape a JSON-RPC frame can take. A
// successful DecodeBytes/DecodeValue always has Method set and never sets
// Result or Error: frames without a method are rejected as InvalidRequest.
type Message struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      json.RawMessage     `json:"id,omitempty"`
	Method  string              `json:"method,omitempty"`
	Params  json.RawMessage     `json:"params,omitempty"`
	Result  json.RawMessage     `json:"result,omitempty"`
	Error   *protoerr.WireError `json:"error,omitempty"`
}

// Request is a JSON-RPC request: it carries an id and elicits a Response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response: exactly one of Result/Error is set.
type Response struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      json.RawMessage     `json:"id"`
	Result  json.RawMessage     `json:"result,omitempty"`
	Error   *protoerr.WireError `json:"error,omitempty"`
}

// Notification is a JSON-RPC notification: it carries no id and elicits no
// response, regardless of handler outcome (spec.md §3, §8).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsRequest reports whether the decoded message is a request (has a method
// and an id, including a literal null id).
func (m *Message) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether the decoded message is a notification (has
// a method and no id field at all — absence, not null, per spec.md §3).
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// ToRequest converts the message to a Request. Callers should check
// IsRequest first; this does not re-validate.
func (m *Message) ToRequest() *Request {
	return &Request{JSONRPC: m.JSONRPC, ID: m.ID, Method: m.Method, Params: m.Params}
}

// ToNotification converts the message to a Notification. Callers should
// check IsNotification first.
func (m *Message) ToNotification() *Notification {
	return &Notification{JSONRPC: m.JSONRPC, Method: m.Method, Params: m.Params}
}

// ParseParams unmarshals the request's params into dst. A request with no
// params leaves dst untouched.
func (r *Request) ParseParams(dst interface{}) error {
	if len(r.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Params, dst); err != nil {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			fmt.Sprintf("failed to unmarshal params for %q", r.Method),
			map[string]interface{}{"method": r.Method, "target_type": fmt.Sprintf("%T", dst)})
	}
	return nil
}

// ParseParams unmarshals the notification's params into dst.
func (n *Notification) ParseParams(dst interface{}) error {
	if len(n.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(n.Params, dst); err != nil {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			fmt.Sprintf("failed to unmarshal params for %q", n.Method),
			map[string]interface{}{"method": n.Method, "target_type": fmt.Sprintf("%T", dst)})
	}
	return nil
}

// RawID returns the request's id as an interface{} (string, float64, or nil).
func (r *Request) RawID() (interface{}, error) {
	if len(r.ID) == 0 {
		return nil, nil
	}
	var id interface{}
	if err := json.Unmarshal(r.ID, &id); err != nil {
		return nil, protoerr.WithDetails(protoerr.KindInvalidRequest,
			"malformed request id", map[string]interface{}{"method": r.Method})
	}
	return id, nil
}

// NewRequest builds a Request, marshaling id and params.
func NewRequest(id interface{}, method string, params interface{}) (*Request, error) {
	idJSON, err := marshalOrNil(id)
	if err != nil {
		return nil, protoerr.Wrap(protoerr.KindInternalError, err, "failed to marshal request id")
	}
	paramsJSON, err := marshalOrNil(params)
	if err != nil {
		return nil, protoerr.Wrap(protoerr.KindInternalError, err, "failed to marshal request params")
	}
	return &Request{JSONRPC: Version, ID: idJSON, Method: method, Params: paramsJSON}, nil
}

// NewNotification builds a Notification, marshaling params.
func NewNotification(method string, params interface{}) (*Notification, error) {
	paramsJSON, err := marshalOrNil(params)
	if err != nil {
		return nil, protoerr.Wrap(protoerr.KindInternalError, err, "failed to marshal notification params")
	}
	return &Notification{JSONRPC: Version, Method: method, Params: paramsJSON}, nil
}

func marshalOrNil(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
