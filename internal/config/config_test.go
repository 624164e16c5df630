package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goodtune/fieldtrack/internal/rules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "storage:\n  path: "+filepath.Join(t.TempDir(), "fieldtrack.bolt")+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.APIPort != 8440 {
		t.Errorf("APIPort = %d, want 8440", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %d, want 9090", cfg.Server.MetricsPort)
	}
	if cfg.Storage.Type != "bolt" {
		t.Errorf("Storage.Type = %q, want bolt", cfg.Storage.Type)
	}
	if cfg.Rules.DefaultVersion != "2022" {
		t.Errorf("Rules.DefaultVersion = %q, want 2022", cfg.Rules.DefaultVersion)
	}
	if cfg.Rules.DefaultMode != "Standard" {
		t.Errorf("Rules.DefaultMode = %q, want Standard", cfg.Rules.DefaultMode)
	}
	if cfg.Audit.MaxSessionHours != 12.0 {
		t.Errorf("Audit.MaxSessionHours = %v, want 12.0", cfg.Audit.MaxSessionHours)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  api_port: 9000
storage:
  path: `+filepath.Join(t.TempDir(), "db.bolt")+`
rules:
  default_mode: Concentrated
audit:
  max_session_hours: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIPort != 9000 {
		t.Errorf("APIPort = %d, want 9000", cfg.Server.APIPort)
	}
	if cfg.Rules.DefaultMode != "Concentrated" {
		t.Errorf("DefaultMode = %q, want Concentrated", cfg.Rules.DefaultMode)
	}
	if cfg.Audit.MaxSessionHours != 10 {
		t.Errorf("MaxSessionHours = %v, want 10", cfg.Audit.MaxSessionHours)
	}
}

func TestLoadModeValidationMatchesParser(t *testing.T) {
	// Mode validation delegates to the supervision mode parser, so any
	// spelling the parser accepts is a valid configuration.
	path := writeConfig(t, `
storage:
  path: `+filepath.Join(t.TempDir(), "db.bolt")+`
rules:
  default_mode: concentrated
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := rules.ParseMode(cfg.Rules.DefaultMode); err != nil {
		t.Errorf("accepted mode %q does not parse: %v", cfg.Rules.DefaultMode, err)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("FIELDTRACK_LOGGING_LEVEL", "debug")

	path := writeConfig(t, "storage:\n  path: "+filepath.Join(t.TempDir(), "db.bolt")+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug from environment", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad api port", content: "server:\n  api_port: 0\n"},
		{name: "unknown storage type", content: "storage:\n  type: cassandra\n"},
		{name: "redis without host", content: "storage:\n  type: redis\n  redis:\n    host: \"\"\n"},
		{name: "unknown mode", content: "rules:\n  default_mode: Intense\n"},
		{name: "negative audit ceiling", content: "audit:\n  max_session_hours: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// Point the storage path somewhere writable so validation passes.
	t.Setenv("FIELDTRACK_STORAGE_PATH", filepath.Join(t.TempDir(), "db.bolt"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIPort != 8440 {
		t.Errorf("APIPort = %d, want default 8440", cfg.Server.APIPort)
	}
}
