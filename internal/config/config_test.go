// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	configPath := writeConfig(t, "bridge.yaml", `
server:
  http_addr: "127.0.0.1:9000"

database:
  path: "./test.db"

tool:
  config_path: "./tool.json"

logging:
  level: "debug"
  format: "json"

dedupe:
  window: "30s"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9000")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Tool.ConfigPath != "./tool.json" {
		t.Errorf("Tool.ConfigPath = %q, want %q", cfg.Tool.ConfigPath, "./tool.json")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Dedupe.Window != 30*time.Second {
		t.Errorf("Dedupe.Window = %v, want %v", cfg.Dedupe.Window, 30*time.Second)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	configPath := writeConfig(t, "bridge.toml", `
[server]
http_addr = "127.0.0.1:9001"

[database]
path = "./toml.db"

[logging]
level = "warn"

[dedupe]
window = "2m"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9001" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9001")
	}
	if cfg.Database.Path != "./toml.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./toml.db")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if cfg.Dedupe.Window != 2*time.Minute {
		t.Errorf("Dedupe.Window = %v, want %v", cfg.Dedupe.Window, 2*time.Minute)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if want := filepath.Join("/data", "gemini-bridge", "gemini_ui.db"); cfg.Database.Path != want {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, want)
	}
	if want := filepath.Join("/cfg", "gemini-bridge", "config.json"); cfg.Tool.ConfigPath != want {
		t.Errorf("Tool.ConfigPath = %q, want %q", cfg.Tool.ConfigPath, want)
	}
	if cfg.Dedupe.Window != DefaultDedupeWindow {
		t.Errorf("Dedupe.Window = %v, want %v", cfg.Dedupe.Window, DefaultDedupeWindow)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_BRIDGE_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TEST_BRIDGE_DB", "/tmp/from-env.db")

	configPath := writeConfig(t, "bridge.yaml", `
database:
  path: "${TEST_BRIDGE_DB}"
auth:
  jwt_secret: "${TEST_BRIDGE_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/from-env.db")
	}
	if cfg.Auth.JWTSecret != "0123456789abcdef0123456789abcdef" {
		t.Errorf("Auth.JWTSecret = %q, want expanded secret", cfg.Auth.JWTSecret)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "short secret",
			content: "auth:\n  jwt_secret: \"short\"\n",
			wantErr: "jwt_secret",
		},
		{
			name:    "bad level",
			content: "logging:\n  level: \"loud\"\n",
			wantErr: "logging.level",
		},
		{
			name:    "bad format",
			content: "logging:\n  format: \"xml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "bad duration",
			content: "dedupe:\n  window: \"soon\"\n",
			wantErr: "dedupe.window",
		},
		{
			name:    "negative duration",
			content: "dedupe:\n  window: \"-1s\"\n",
			wantErr: "dedupe.window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bridge.yaml", tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "bridge.yaml", "server: [unclosed"))
	if err == nil {
		t.Fatal("Load() expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing config file", err)
	}
}

func TestPath_Priority(t *testing.T) {
	t.Setenv("GEMINI_BRIDGE_CONFIG", "/env/bridge.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := Path("/flag/bridge.yaml"); got != "/flag/bridge.yaml" {
		t.Errorf("Path(flag) = %q, want flag value", got)
	}
	if got := Path(""); got != "/env/bridge.yaml" {
		t.Errorf("Path(\"\") = %q, want env value", got)
	}

	t.Setenv("GEMINI_BRIDGE_CONFIG", "")
	if want := filepath.Join("/xdg", "gemini-bridge", "bridge.yaml"); Path("") != want {
		t.Errorf("Path(\"\") = %q, want %q", Path(""), want)
	}
}

func TestExpandEnvVars_UnsetBecomesEmpty(t *testing.T) {
	t.Setenv("TEST_SET_VAR", "x")
	got := expandEnvVars("a=${TEST_SET_VAR} b=${TEST_SURELY_UNSET_VAR_42}")
	if got != "a=x b=" {
		t.Errorf("expandEnvVars() = %q, want %q", got, "a=x b=")
	}
}
