package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestThrottleSuppressesBursts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	// One record per second, burst of 2.
	th := NewThrottle(logger, 1, 2)

	for i := 0; i < 10; i++ {
		th.Warn("anomaly", "n", i)
	}

	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Errorf("logged lines = %d, want 2 (burst)", lines)
	}
	if got := th.Dropped(); got != 8 {
		t.Errorf("Dropped() = %d, want 8", got)
	}
}

func TestThrottleReportsSuppressedCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	th := NewThrottle(logger, 1000, 5)

	th.dropped.Add(3)
	th.Warn("after suppression")

	out := buf.String()
	if !strings.Contains(out, "suppressed=3") {
		t.Errorf("output missing suppression report:\n%s", out)
	}
	if got := th.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0 after report", got)
	}
}

func TestThrottleNilSafe(t *testing.T) {
	var th *Throttle
	th.Warn("no panic")

	th = &Throttle{}
	th.Warn("no panic either")
}
