package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing config. %v", err)
	}
	return path
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := writeConfig(t, "relay:\n  port: 7900\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed loading. %v", err)
	}
	if cfg.Relay.Port != 7900 {
		t.Errorf("expected port 7900, got %d", cfg.Relay.Port)
	}
	if cfg.Relay.Host != "127.0.0.1" {
		t.Errorf("expected default host, got %q", cfg.Relay.Host)
	}
	if cfg.Relay.BroadcastBuffer != 1024 {
		t.Errorf("expected default buffer, got %d", cfg.Relay.BroadcastBuffer)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level, got %q", cfg.Logging.Level)
	}
	if cfg.Address() != "127.0.0.1:7900" {
		t.Errorf("unexpected address %q", cfg.Address())
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `relay:
  host: 0.0.0.0
  port: 7901
  broadcast_buffer: 64
  max_frame_bytes: 65536
  metrics_address: 127.0.0.1:9090
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed loading. %v", err)
	}
	if cfg.Relay.Host != "0.0.0.0" || cfg.Relay.Port != 7901 {
		t.Errorf("unexpected relay address %q", cfg.Address())
	}
	if cfg.Relay.BroadcastBuffer != 64 || cfg.Relay.MaxFrameBytes != 65536 {
		t.Errorf("unexpected limits %d/%d", cfg.Relay.BroadcastBuffer, cfg.Relay.MaxFrameBytes)
	}
	if cfg.Relay.MetricsAddress != "127.0.0.1:9090" {
		t.Errorf("unexpected metrics address %q", cfg.Relay.MetricsAddress)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected level %q", cfg.Logging.Level)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"negative buffer", "relay:\n  broadcast_buffer: -1\n"},
		{"empty host", "relay:\n  host: \"\"\n"},
		{"not yaml", "relay: [\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.content)
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
