package appdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirEnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv(NaviDirEnv, override)
	ResetCache()
	t.Cleanup(ResetCache)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != override {
		t.Errorf("Dir() = %q, want %q", dir, override)
	}
}

func TestDirIsCached(t *testing.T) {
	first := t.TempDir()
	t.Setenv(NaviDirEnv, first)
	ResetCache()
	t.Cleanup(ResetCache)

	if _, err := Dir(); err != nil {
		t.Fatal(err)
	}
	// Changing the env after resolution must not change the answer.
	t.Setenv(NaviDirEnv, t.TempDir())
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != first {
		t.Errorf("Dir() = %q, want cached %q", dir, first)
	}
}

func TestEnsureDirCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "navi-home")
	t.Setenv(NaviDirEnv, root)
	ResetCache()
	t.Cleanup(ResetCache)

	if err := EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	sessions, err := SessionsDir()
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(sessions)
	if err != nil {
		t.Fatalf("sessions dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("sessions path is not a directory")
	}

	cfgPath, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, ConfigFileName); cfgPath != want {
		t.Errorf("ConfigPath() = %q, want %q", cfgPath, want)
	}
}
