// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "config-test-secret-that-is-32-bytes!"

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_addr: "127.0.0.1:9090"

database:
  path: "./test.db"

auth:
  jwt_secret: "`+testSecret+`"
  session_duration: "12h"

admin:
  session_poll_interval: "5s"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/internal/metrics"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9090")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.SessionDuration != 12*time.Hour {
		t.Errorf("Auth.SessionDuration = %v, want 12h", cfg.Auth.SessionDuration)
	}
	if cfg.Admin.SessionPollInterval != 5*time.Second {
		t.Errorf("Admin.SessionPollInterval = %v, want 5s", cfg.Admin.SessionPollInterval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/internal/metrics" {
		t.Errorf("Metrics = %+v, want enabled at /internal/metrics", cfg.Metrics)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
http_addr = ":7070"

[database]
path = "/tmp/labeldesk.db"

[auth]
jwt_secret = "`+testSecret+`"

[admin]
session_poll_interval = "10s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != ":7070" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":7070")
	}
	if cfg.Database.Path != "/tmp/labeldesk.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Admin.SessionPollInterval != 10*time.Second {
		t.Errorf("Admin.SessionPollInterval = %v, want 10s", cfg.Admin.SessionPollInterval)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "./test.db"
auth:
  jwt_secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Auth.SessionDuration != DefaultSessionDuration {
		t.Errorf("Auth.SessionDuration = %v, want default", cfg.Auth.SessionDuration)
	}
	if cfg.Admin.SessionPollInterval != DefaultSessionPollInterval {
		t.Errorf("Admin.SessionPollInterval = %v, want default", cfg.Admin.SessionPollInterval)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default", cfg.Metrics.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("LABELDESK_TEST_SECRET", testSecret)
	t.Setenv("LABELDESK_TEST_DB", "/var/lib/labeldesk/test.db")

	path := writeConfig(t, "config.yaml", `
database:
  path: "${LABELDESK_TEST_DB}"
auth:
  jwt_secret: "${LABELDESK_TEST_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("Auth.JWTSecret = %q, want expanded secret", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Path != "/var/lib/labeldesk/test.db" {
		t.Errorf("Database.Path = %q, want expanded path", cfg.Database.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			file:    "config.yaml",
			content: "auth:\n  jwt_secret: \"" + testSecret + "\"\n",
			wantErr: "database.path is required",
		},
		{
			name:    "short secret",
			file:    "config.yaml",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least",
		},
		{
			name:    "bad duration",
			file:    "config.yaml",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\n  session_duration: forever\n",
			wantErr: "parsing session_duration",
		},
		{
			name:    "poll interval too small",
			file:    "config.yaml",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\nadmin:\n  session_poll_interval: 10ms\n",
			wantErr: "session_poll_interval must be at least 1s",
		},
		{
			name:    "bad log format",
			file:    "config.yaml",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\nlogging:\n  format: xml\n",
			wantErr: "logging.format",
		},
		{
			name:    "invalid toml",
			file:    "config.toml",
			content: "[database\npath = ",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("unexpected error: %v", err)
	}
}
