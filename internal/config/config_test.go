// file: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMcpkitEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MCPKIT_DEBUG", "MCPKIT_SILENT", "MCPKIT_NO_DEFAULT_TRANSPORT",
		"MCPKIT_SERVER_NAME", "MCPKIT_SERVER_VERSION", "LOG_LEVEL",
	} {
		val, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, val)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearMcpkitEnv(t)
	s := Load()
	assert.Equal(t, "mcpkit", s.ServerName)
	assert.Equal(t, "dev", s.ServerVersion)
	assert.False(t, s.Debug)
	assert.False(t, s.Silent)
	assert.Equal(t, "info", s.LogLevel)
	assert.Contains(t, s.ProtocolVersions, "2025-06-18")
}

func TestLoad_DebugEnvVar(t *testing.T) {
	clearMcpkitEnv(t)
	require.NoError(t, os.Setenv("MCPKIT_DEBUG", "1"))
	s := Load()
	assert.True(t, s.Debug)
}

func TestLoad_SilentForcesLogLevel(t *testing.T) {
	clearMcpkitEnv(t)
	require.NoError(t, os.Setenv("LOG_LEVEL", "silent"))
	s := Load()
	assert.True(t, s.Silent)
	assert.Equal(t, "silent", s.LogLevel)
}

func TestWriteDefault_CreatesScaffoldOnlyWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mcpkit.yaml")

	require.NoError(t, WriteDefault(path))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(first), "server_name")

	require.NoError(t, os.WriteFile(path, []byte("server_name: customized\n"), 0o644))
	require.NoError(t, WriteDefault(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server_name: customized\n", string(second))
}

func TestAcceptsProtocolVersion(t *testing.T) {
	s := &Settings{ProtocolVersions: []string{"2024-11-05", "2025-06-18"}}
	assert.True(t, s.AcceptsProtocolVersion("2025-06-18"))
	assert.False(t, s.AcceptsProtocolVersion("1999-01-01"))
}
