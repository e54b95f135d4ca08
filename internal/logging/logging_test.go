package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeWithFileLog(t *testing.T) {
	t.Cleanup(func() {
		Close()
		ResetForTest()
	})
	logPath := filepath.Join(t.TempDir(), "navi.log")
	err := Initialize(Config{
		Level:   "debug",
		FileLog: &FileLogConfig{Path: logPath},
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	Get().Info("hello from test")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestComponentFiltering(t *testing.T) {
	t.Cleanup(ResetForTest)
	if err := Initialize(Config{Level: "debug", Components: []string{"conn"}}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if !isComponentAllowed("conn") {
		t.Error("conn should be allowed")
	}
	if isComponentAllowed("coordinator") {
		t.Error("coordinator should be filtered out")
	}

	// No filter means everything is allowed.
	if err := Initialize(Config{Level: "debug"}); err != nil {
		t.Fatal(err)
	}
	if !isComponentAllowed("coordinator") {
		t.Error("coordinator should be allowed without a filter")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWithSession(t *testing.T) {
	if got := WithSession(nil, "s1"); got != nil {
		t.Error("WithSession(nil) should return nil")
	}
	if got := WithSession(Get(), "s1"); got == nil {
		t.Error("WithSession(Get()) returned nil")
	}
}
