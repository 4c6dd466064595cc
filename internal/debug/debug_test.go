package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func reset(t *testing.T) {
	t.Helper()
	oldEnabled := enabled
	t.Cleanup(func() {
		enabled = oldEnabled
		SetVerbose(false)
		SetQuiet(false)
	})
	enabled = false
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name           string
		verbose, quiet bool
		want           slog.Level
	}{
		{"default", false, false, slog.LevelInfo},
		{"verbose", true, false, slog.LevelDebug},
		{"quiet", false, true, slog.LevelWarn},
		{"verbose wins", true, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)
			SetVerbose(tt.verbose)
			SetQuiet(tt.quiet)
			if got := Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	log := NewLogger(&buf)
	log.Debug("hidden")
	log.Info("shown", "story", 7)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "story=7") {
		t.Errorf("output = %q", out)
	}
}

func TestPrintNormal(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	PrintNormal(&buf, "hello %s\n", "world")
	SetQuiet(true)
	PrintNormal(&buf, "suppressed\n")
	if buf.String() != "hello world\n" {
		t.Errorf("output = %q", buf.String())
	}
}
