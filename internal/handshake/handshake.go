// Package handshake implements the three MCP lifecycle methods of
// spec.md §4.9: initialize, notifications/initialized, and shutdown.
// file: internal/handshake/handshake.go
package handshake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkoosis/mcpkit/internal/config"
	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/internal/registry"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

// Handlers binds the lifecycle manager, registries, and settings needed to
// answer the handshake methods.
type Handlers struct {
	Manager    *lifecycle.Manager
	Registries *registry.Set
	Settings   *config.Settings
}

type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      map[string]interface{} `json:"clientInfo,omitempty"`
}

// InitializeResult is the result of a successful initialize call.
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      mcp.ServerInfo         `json:"serverInfo"`
}

// Initialize implements the `initialize` method of spec.md §4.9.
func (h *Handlers) Initialize(ctx context.Context, rawParams json.RawMessage) (*InitializeResult, error) {
	if len(rawParams) == 0 {
		return nil, protoerr.New(protoerr.KindInvalidParams, "missing params")
	}

	var params initializeParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, protoerr.Wrap(protoerr.KindInvalidParams, err, "malformed params")
	}
	if params.ProtocolVersion == "" {
		return nil, protoerr.New(protoerr.KindInvalidParams, "missing params.protocolVersion")
	}
	if params.Capabilities == nil {
		return nil, protoerr.New(protoerr.KindInvalidParams, "missing params.capabilities")
	}

	if err := h.Manager.AcceptInitialize(ctx); err != nil {
		return nil, err
	}

	if !h.Settings.AcceptsProtocolVersion(params.ProtocolVersion) {
		_ = h.Manager.FailInitialization(ctx)
		return nil, protoerr.New(protoerr.KindInternalError,
			fmt.Sprintf("Unsupported protocol version: %s", params.ProtocolVersion))
	}

	return &InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		Capabilities:    h.Registries.Capabilities(),
		ServerInfo: mcp.ServerInfo{
			Name:    h.Settings.ServerName,
			Version: h.Settings.ServerVersion,
		},
	}, nil
}

// ClientInitialized implements the `notifications/initialized` method.
func (h *Handlers) ClientInitialized(ctx context.Context) error {
	return h.Manager.AcceptClientInitialized(ctx)
}

// Shutdown implements the `shutdown` method of spec.md §4.9. params is
// accepted but unused; shutdown takes no required fields.
func (h *Handlers) Shutdown(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	if err := h.Manager.Shutdown(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}
