// file: internal/handshake/handshake_test.go
package handshake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/mcpkit/internal/config"
	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/internal/registry"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	mgr, err := lifecycle.NewManager(nil)
	require.NoError(t, err)
	return &Handlers{
		Manager:    mgr,
		Registries: registry.NewSet(nil),
		Settings: &config.Settings{
			ServerName:       "test-server",
			ServerVersion:    "0.0.0-test",
			ProtocolVersions: []string{"2025-06-18"},
		},
	}
}

func TestInitialize_HappyPath(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	result, err := h.Initialize(ctx, []byte(`{"protocolVersion":"2025-06-18","capabilities":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-06-18", result.ProtocolVersion)
	assert.Equal(t, "test-server", result.ServerInfo.Name)
	assert.Equal(t, lifecycle.StateInitializing, h.Manager.CurrentState())
}

func TestInitialize_MissingParams(t *testing.T) {
	h := newTestHandlers(t)
	_, err := h.Initialize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindInvalidParams))
}

func TestInitialize_MissingProtocolVersion(t *testing.T) {
	h := newTestHandlers(t)
	_, err := h.Initialize(context.Background(), []byte(`{"capabilities":{}}`))
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindInvalidParams))
}

func TestInitialize_UnsupportedVersionResetsToIdle(t *testing.T) {
	h := newTestHandlers(t)
	_, err := h.Initialize(context.Background(), []byte(`{"protocolVersion":"2023-01-01","capabilities":{}}`))
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindInternalError))
	assert.Contains(t, err.Error(), "Unsupported protocol version: 2023-01-01")
	assert.Equal(t, lifecycle.StateIdle, h.Manager.CurrentState())
}

func TestInitialize_DuplicateIsAlreadyInitialized(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	_, err := h.Initialize(ctx, []byte(`{"protocolVersion":"2025-06-18","capabilities":{}}`))
	require.NoError(t, err)

	_, err = h.Initialize(ctx, []byte(`{"protocolVersion":"2025-06-18","capabilities":{}}`))
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindAlreadyInitialized))
}

func TestFullHandshakeAndShutdown(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	_, err := h.Initialize(ctx, []byte(`{"protocolVersion":"2025-06-18","capabilities":{}}`))
	require.NoError(t, err)

	require.NoError(t, h.ClientInitialized(ctx))
	assert.Equal(t, lifecycle.StateReady, h.Manager.CurrentState())

	_, err = h.Shutdown(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateIdle, h.Manager.CurrentState())
	assert.True(t, h.Manager.HasBeenInitialized())
}
