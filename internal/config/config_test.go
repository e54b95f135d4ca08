package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.Agent.URL != def.Agent.URL {
		t.Errorf("Agent.URL = %q, want default %q", cfg.Agent.URL, def.Agent.URL)
	}
	if cfg.UntilDone.MaxIterations != def.UntilDone.MaxIterations {
		t.Errorf("MaxIterations = %d, want %d", cfg.UntilDone.MaxIterations, def.UntilDone.MaxIterations)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
agent:
  url: ws://example.test:9999/events
until_done:
  max_iterations: 3
reconnect:
  max_retries: 7
  initial_interval: 1s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.URL != "ws://example.test:9999/events" {
		t.Errorf("Agent.URL = %q", cfg.Agent.URL)
	}
	if cfg.UntilDone.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want 3", cfg.UntilDone.MaxIterations)
	}
	if cfg.Reconnect.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Reconnect.MaxRetries)
	}
	if cfg.Reconnect.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", cfg.Reconnect.InitialInterval)
	}
	// Untouched sections keep their defaults.
	if cfg.UntilDone.ContinuePrompt != Default().UntilDone.ContinuePrompt {
		t.Errorf("ContinuePrompt = %q, want default", cfg.UntilDone.ContinuePrompt)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load(invalid yaml) expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty url", func(c *Config) { c.Agent.URL = "" }, true},
		{"zero iterations", func(c *Config) { c.UntilDone.MaxIterations = 0 }, true},
		{"negative interval", func(c *Config) { c.Reconnect.InitialInterval = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
