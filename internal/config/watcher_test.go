package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// Rename-over-write, the way most editors save.
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func waitForConfig(t *testing.T, ch <-chan *Config) *Config {
	t.Helper()
	select {
	case cfg := <-ch:
		return cfg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
		return nil
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "agent:\n  url: ws://one/events\n")

	reloads := make(chan *Config, 4)
	w, err := NewWatcher(path, nil, func(cfg *Config) { reloads <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetDebounceDelay(10 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Close()

	writeConfig(t, path, "agent:\n  url: ws://two/events\n")

	cfg := waitForConfig(t, reloads)
	if cfg.Agent.URL != "ws://two/events" {
		t.Errorf("Agent.URL = %q, want ws://two/events", cfg.Agent.URL)
	}
}

func TestWatcherKeepsPreviousConfigOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "agent:\n  url: ws://good/events\n")

	reloads := make(chan *Config, 4)
	w, err := NewWatcher(path, nil, func(cfg *Config) { reloads <- cfg })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounceDelay(10 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeConfig(t, path, "agent: [broken")
	select {
	case cfg := <-reloads:
		t.Fatalf("onChange fired for invalid config: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	// Valid content after the bad write still triggers a reload.
	writeConfig(t, path, "agent:\n  url: ws://recovered/events\n")
	cfg := waitForConfig(t, reloads)
	if cfg.Agent.URL != "ws://recovered/events" {
		t.Errorf("Agent.URL = %q, want ws://recovered/events", cfg.Agent.URL)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "agent:\n  url: ws://one/events\n")

	reloads := make(chan *Config, 4)
	w, err := NewWatcher(path, nil, func(cfg *Config) { reloads <- cfg })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounceDelay(10 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloads:
		t.Error("onChange fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := NewWatcher(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
