// file: internal/jsonrpc/utils.go
package jsonrpc

import "encoding/json"

// FormatRequestID safely formats a raw JSON-RPC id as a string for logging
// purposes, avoiding issues with different id types (numbers, strings, null).
func FormatRequestID(id json.RawMessage) string {
	if len(id) == 0 {
		return "<none>"
	}
	return string(id)
}
