// Package mcp exposes the primitive definition types a host program uses to
// register tools, resources, and prompts with the framework, and the
// handler-facing context passed into their implementations.
// file: pkg/mcp/types.go
package mcp

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// ToolArgument documents one parameter of a tool's arguments object.
type ToolArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolHandler implements a tool's behavior. args is the raw "arguments"
// object from a tools/call request.
type ToolHandler func(ctx context.Context, hctx *HandlerContext, args json.RawMessage) (interface{}, error)

// ToolDefinition is a tool exposed by the server, registered with the tool
// registry. Name must satisfy registry.ValidateName.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	Handler     ToolHandler     `json:"-"`
}

// SchemaFromStruct derives a tool's inputSchema from the shape of a Go
// struct, for callers who would rather describe arguments as a type than
// hand-write JSON Schema.
func SchemaFromStruct(v interface{}) json.RawMessage {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.ReflectFromType(reflect.TypeOf(v))
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	return raw
}

// ResourceHandler reads one resource instance addressed by uri.
type ResourceHandler func(ctx context.Context, hctx *HandlerContext, uri string) (*ResourceContent, error)

// ResourceContent is what a ResourceHandler returns for a resources/read
// call.
type ResourceContent struct {
	URI      string                 `json:"uri"`
	MimeType string                 `json:"mimeType,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Blob     []byte                 `json:"blob,omitempty"`
	Metadata map[string]interface{} `json:"-"`
}

// ResourceDefinition registers a URI pattern (e.g. "file:///logs/*") against
// a handler; see internal/registry for the matching rules.
type ResourceDefinition struct {
	URIPattern  string          `json:"uriPattern"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	MimeType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
	// ValidateURI, if set, is consulted after pattern matching; a
	// {success:false} result short-circuits with InvalidParams
	// (spec.md §4.6).
	ValidateURI func(uri string) (bool, []string) `json:"-"`
}

// PromptArgument documents one parameter a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PromptMessage is one message of a prompts/get result.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptHandler renders a prompt's messages given the caller's arguments.
type PromptHandler func(ctx context.Context, hctx *HandlerContext, args map[string]interface{}) ([]PromptMessage, error)

// PromptDefinition is a parameterized prompt template, registered with the
// prompt registry. Name must satisfy registry.ValidateName.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
	Handler     PromptHandler    `json:"-"`
}

// HandlerContext is threaded through every handler invocation: the request
// id for correlation, transport metadata, and a free-form state bag
// middleware can use to pass data to downstream handlers (spec.md §4.5's
// ctx.state).
type HandlerContext struct {
	RequestID     json.RawMessage
	TransportName string
	State         map[string]interface{}
}

// ServerInfo is echoed back in a successful initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
