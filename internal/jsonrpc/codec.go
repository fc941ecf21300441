// file: internal/jsonrpc/codec.go
package jsonrpc

import (
	"encoding/json"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// rawFrame mirrors the wire shape closely enough to distinguish field
// presence (nil) from field-present-with-null-value (json.RawMessage
// "null"), which spec.md §3 requires for the id field.
type rawFrame struct {
	JSONRPC json.RawMessage `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  json.RawMessage `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// DecodeBytes validates and parses a raw JSON-RPC frame given as JSON text,
// following the exact validation sequence of spec.md §4.1. Already-parsed
// values go through DecodeValue instead.
func DecodeBytes(input []byte) (*Message, *protoerr.Error) {
	var top interface{}
	if err := json.Unmarshal(input, &top); err != nil {
		return nil, protoerr.WithDetails(protoerr.KindParseError, "", map[string]interface{}{
			"input_preview": previewBytes(input),
		})
	}
	return decodeValue(input, top)
}

// DecodeValue validates and parses an already-unmarshaled JSON value (e.g.
// one element of a batch array decoded by a transport upstream).
func DecodeValue(v interface{}) (*Message, *protoerr.Error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, protoerr.WithDetails(protoerr.KindParseError, "value is not serializable", nil)
	}
	return decodeValue(raw, v)
}

func decodeValue(raw []byte, top interface{}) (*Message, *protoerr.Error) {
	obj, ok := top.(map[string]interface{})
	if !ok {
		return nil, protoerr.New(protoerr.KindInvalidRequest, "request must be a JSON object")
	}

	var frame rawFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, protoerr.New(protoerr.KindInvalidRequest, "malformed request object")
	}

	version, _ := obj["jsonrpc"].(string)
	if version != Version {
		return nil, protoerr.WithDetails(protoerr.KindInvalidRequest,
			"missing or invalid \"jsonrpc\" version", map[string]interface{}{"jsonrpc": obj["jsonrpc"]})
	}

	methodVal, hasMethod := obj["method"]
	if !hasMethod {
		return nil, protoerr.New(protoerr.KindInvalidRequest, "missing \"method\"")
	}
	method, ok := methodVal.(string)
	if !ok || method == "" {
		return nil, protoerr.New(protoerr.KindInvalidRequest, "\"method\" must be a non-empty string")
	}

	_, hasID := obj["id"]
	if hasID {
		switch obj["id"].(type) {
		case string, float64, nil:
			// Valid id types.
		default:
			return nil, protoerr.New(protoerr.KindInvalidRequest, "\"id\" must be a string, number, or null")
		}
	}

	msg := &Message{JSONRPC: Version, Method: method}
	if hasID {
		msg.ID = frame.ID
	}
	// An explicit "params": null is passed through unchanged, distinct
	// from params being absent from the frame entirely (spec.md §4.1
	// step 6).
	if _, hasParams := obj["params"]; hasParams {
		msg.Params = frame.Params
	}
	return msg, nil
}

// EncodeSuccess builds a success Response with a given id and result value.
// result may be nil, which is distinct from an absent result on the wire.
func EncodeSuccess(id json.RawMessage, result interface{}) (*Response, error) {
	var resultJSON json.RawMessage
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, protoerr.Wrap(protoerr.KindInternalError, err, "failed to marshal result")
		}
		resultJSON = raw
	} else {
		resultJSON = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: id, Result: resultJSON}, nil
}

// EncodeError builds an error Response for the given id, translating err
// into its wire representation. debug gates whether stack/internal details
// are attached (spec.md §6's MCPKIT_DEBUG).
func EncodeError(id json.RawMessage, err error, debug bool) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: protoerr.ToWireError(err, debug)}
}

// Standard error response builders, one per spec.md §6 wire code.
func ParseErrorResponse(preview []byte, debug bool) *Response {
	return EncodeError(nil, protoerr.WithDetails(protoerr.KindParseError, "", map[string]interface{}{
		"input_preview": previewBytes(preview),
	}), debug)
}

func InvalidRequestResponse(id json.RawMessage, message string, debug bool) *Response {
	return EncodeError(id, protoerr.New(protoerr.KindInvalidRequest, message), debug)
}

func MethodNotFoundResponse(id json.RawMessage, method string, debug bool) *Response {
	return EncodeError(id, protoerr.WithDetails(protoerr.KindMethodNotFound, "", map[string]interface{}{
		"method": method,
	}), debug)
}

func InvalidParamsResponse(id json.RawMessage, message string, debug bool) *Response {
	return EncodeError(id, protoerr.New(protoerr.KindInvalidParams, message), debug)
}

func InternalErrorResponse(id json.RawMessage, cause error, debug bool) *Response {
	return EncodeError(id, protoerr.Wrap(protoerr.KindInternalError, cause, ""), debug)
}

func previewBytes(b []byte) string {
	const max = 120
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
