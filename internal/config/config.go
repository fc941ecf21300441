// Package config loads server Settings from the environment (and an
// optional .env file), per SPEC_FULL.md §2.3.
// file: internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/mcpkit/internal/logging"
)

// Settings is the application-wide configuration surface. None of it is
// persisted across restarts (spec.md §1 non-goals); it is re-read from the
// environment at each process start.
type Settings struct {
	// ServerName/ServerVersion are echoed in the initialize response's
	// serverInfo (spec.md §4.9).
	ServerName    string
	ServerVersion string

	// Debug attaches stack traces to error bodies when true (MCPKIT_DEBUG).
	Debug bool

	// Silent disables logging hooks entirely (MCPKIT_SILENT or
	// LOG_LEVEL=silent).
	Silent bool

	// LogLevel is one of debug|info|warn|error|silent.
	LogLevel string

	// NoDefaultTransport suppresses auto-attaching a default transport,
	// used by test harnesses (MCPKIT_NO_DEFAULT_TRANSPORT).
	NoDefaultTransport bool

	// ProtocolVersions lists the MCP protocolVersion strings this server
	// accepts during initialize (spec.md §3).
	ProtocolVersions []string
}

// defaultProtocolVersions matches spec.md §3's example accepted set.
var defaultProtocolVersions = []string{"2024-11-05", "2025-06-18"}

// Load reads Settings from the process environment, optionally overlaid by
// a ".env" file in the working directory (ignored if absent) via
// github.com/joho/godotenv, and bound through github.com/spf13/viper so env
// vars and an optional mcpkit.yaml file share one resolution path.
func Load() *Settings {
	_ = godotenv.Load() // Best-effort; a missing .env file is not an error.

	v := viper.New()
	v.SetConfigName("mcpkit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mcpkit")
	_ = v.ReadInConfig() // Optional overlay; absence is not an error.

	v.SetEnvPrefix("MCPKIT")
	v.AutomaticEnv()
	_ = v.BindEnv("debug", "MCPKIT_DEBUG")
	_ = v.BindEnv("silent", "MCPKIT_SILENT")
	_ = v.BindEnv("no_default_transport", "MCPKIT_NO_DEFAULT_TRANSPORT")

	v.SetDefault("server_name", "mcpkit")
	v.SetDefault("server_version", "dev")
	v.SetDefault("debug", false)
	v.SetDefault("silent", false)
	v.SetDefault("log_level", envOr("LOG_LEVEL", "info"))
	v.SetDefault("no_default_transport", false)

	s := &Settings{
		ServerName:         v.GetString("server_name"),
		ServerVersion:      v.GetString("server_version"),
		Debug:              v.GetBool("debug") || os.Getenv("MCPKIT_DEBUG") == "1",
		Silent:             v.GetBool("silent") || strings.EqualFold(os.Getenv("LOG_LEVEL"), "silent"),
		LogLevel:           v.GetString("log_level"),
		NoDefaultTransport: v.GetBool("no_default_transport"),
		ProtocolVersions:   defaultProtocolVersions,
	}
	if s.Silent {
		s.LogLevel = "silent"
	}
	return s
}

// ConfigureLogging applies Settings to the package-level default logger.
func (s *Settings) ConfigureLogging() {
	if s.Silent {
		logging.SetLevel(logging.LevelSilent)
		return
	}
	logging.SetLevel(logging.ParseLevel(s.LogLevel))
}

// AcceptsProtocolVersion reports whether v is in the server's accepted set.
func (s *Settings) AcceptsProtocolVersion(v string) bool {
	for _, accepted := range s.ProtocolVersions {
		if accepted == v {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultOverlay is what WriteDefault scaffolds onto disk; field names match
// the "mcpkit.yaml" keys Load() reads via viper.
type defaultOverlay struct {
	ServerName string `yaml:"server_name"`
	LogLevel   string `yaml:"log_level"`
	Debug      bool   `yaml:"debug"`
	Silent     bool   `yaml:"silent"`
}

// WriteDefault scaffolds a starter "mcpkit.yaml" overlay at path if nothing
// already exists there, mirroring the teacher's findOrCreateConfig /
// createDefaultConfig fallback for a missing configuration file. Existing
// files are left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(defaultOverlay{
		ServerName: "mcpkit",
		LogLevel:   "info",
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
