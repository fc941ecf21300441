// file: internal/lifecycle/machine_test.go
package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(logging.GetNoopLogger())
	require.NoError(t, err)
	return m
}

func TestManager_HappyPathHandshake(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	assert.Equal(t, StateIdle, m.CurrentState())

	require.NoError(t, m.AcceptInitialize(ctx))
	assert.Equal(t, StateInitializing, m.CurrentState())
	assert.False(t, m.HasBeenInitialized())

	require.NoError(t, m.AcceptClientInitialized(ctx))
	assert.Equal(t, StateReady, m.CurrentState())
	assert.True(t, m.HasBeenInitialized())
}

func TestManager_DuplicateInitializeIsAlreadyInitialized(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.AcceptInitialize(ctx))

	err := m.AcceptInitialize(ctx)
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindAlreadyInitialized))
}

func TestManager_InitializationFailureResetsToIdle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.AcceptInitialize(ctx))
	require.NoError(t, m.FailInitialization(ctx))
	assert.Equal(t, StateIdle, m.CurrentState())
	assert.False(t, m.HasBeenInitialized())
}

func TestManager_ClientInitializedOutsideInitializingIsLifecycleViolation(t *testing.T) {
	m := newTestManager(t)
	err := m.AcceptClientInitialized(context.Background())
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindLifecycleViolation))
}

func TestManager_ShutdownIsIdempotentFromIdle(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestManager_ShutdownFromReadyReturnsToIdleAndKeepsHasBeenInitialized(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.AcceptInitialize(ctx))
	require.NoError(t, m.AcceptClientInitialized(ctx))

	require.NoError(t, m.Shutdown(ctx))
	assert.Equal(t, StateIdle, m.CurrentState())
	assert.True(t, m.HasBeenInitialized(), "hasBeenInitialized persists across shutdown")
}

func TestManager_ValidateOperation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	err := m.ValidateOperation("tools/list")
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindNotInitialized))

	assert.NoError(t, m.ValidateOperation("ping"))
	assert.NoError(t, m.ValidateOperation("initialize"))

	require.NoError(t, m.AcceptInitialize(ctx))
	require.NoError(t, m.AcceptClientInitialized(ctx))
	assert.NoError(t, m.ValidateOperation("tools/list"))

	require.NoError(t, m.Shutdown(ctx))
	err = m.ValidateOperation("tools/list")
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindAfterShutdown))
}

func TestManager_ListenerPanicDoesNotCorruptState(t *testing.T) {
	m := newTestManager(t)
	m.Subscribe(func(_ Notification) { panic("listener exploded") })

	err := m.AcceptInitialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInitializing, m.CurrentState())
}
