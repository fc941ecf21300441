// file: internal/gate/gate_test.go
package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, AlwaysAllowed, Classify("ping"))
	assert.Equal(t, AlwaysAllowed, Classify("notifications/cancelled"))
	assert.Equal(t, Initialization, Classify("initialize"))
	assert.Equal(t, Initialization, Classify("notifications/initialized"))
	assert.Equal(t, Operational, Classify("tools/list"))
	assert.Equal(t, Operational, Classify("totally/unknown/method"))
}

func TestAdmit_Idle(t *testing.T) {
	assert.Nil(t, Admit(lifecycle.StateIdle, "ping", false))
	assert.Nil(t, Admit(lifecycle.StateIdle, "initialize", false))

	err := Admit(lifecycle.StateIdle, "tools/list", false)
	require.NotNil(t, err)
	assert.Equal(t, protoerr.KindNotInitialized, err.Kind())

	err = Admit(lifecycle.StateIdle, "tools/list", true)
	require.NotNil(t, err)
	assert.Equal(t, protoerr.KindAfterShutdown, err.Kind())
}

func TestAdmit_Initializing(t *testing.T) {
	assert.Nil(t, Admit(lifecycle.StateInitializing, "ping", false))

	err := Admit(lifecycle.StateInitializing, "initialize", false)
	require.NotNil(t, err)
	assert.Equal(t, protoerr.KindAlreadyInitialized, err.Kind())

	assert.Nil(t, Admit(lifecycle.StateInitializing, "notifications/initialized", false))

	err = Admit(lifecycle.StateInitializing, "tools/list", false)
	require.NotNil(t, err)
	assert.Equal(t, protoerr.KindLifecycleViolation, err.Kind())
}

func TestAdmit_Ready(t *testing.T) {
	assert.Nil(t, Admit(lifecycle.StateReady, "ping", true))
	assert.Nil(t, Admit(lifecycle.StateReady, "tools/list", true))
	assert.Nil(t, Admit(lifecycle.StateReady, "notifications/initialized", true),
		"ignored but not rejected when already READY")

	err := Admit(lifecycle.StateReady, "initialize", true)
	require.NotNil(t, err)
	assert.Equal(t, protoerr.KindAlreadyInitialized, err.Kind())
}

func TestAdmit_ErrorDataCarriesStateAndOperation(t *testing.T) {
	err := Admit(lifecycle.StateIdle, "tools/call", false)
	require.NotNil(t, err)
	assert.Equal(t, "IDLE", err.Details()["currentState"])
	assert.Equal(t, "tools/call", err.Details()["operation"])
}
