package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/user/mcapvideo/pkg/ports"
)

func TestConsoleLogger_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriters(ports.LevelInfo, &out, &errOut)

	log.Debug("hidden %d", 1)
	log.Info("info message %d", 100)
	log.Warn("warn message %d", 1)
	log.Error("error message %s", "out.mp4")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "info message 100") {
		t.Errorf("expected info on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "warn message 1") {
		t.Errorf("expected warning on stderr, got %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "error message out.mp4") {
		t.Errorf("expected error on stderr, got %q", errOut.String())
	}
}

func TestConsoleLogger_Component(t *testing.T) {
	var out bytes.Buffer
	log := NewConsoleWriters(ports.LevelDebug, &out, &out).WithComponent("decode")

	log.Debug("debug message %s %dx%d", "png", 4, 3)

	if got := out.String(); got != "[decode] debug message png 4x3\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out bytes.Buffer
	log := NewConsoleWriters(ports.LevelQuiet, &out, &out)

	log.Error("error message %v", "boom")

	if out.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got %q", out.String())
	}
}

func TestConsoleLogger_SeverityPrefix(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriters(ports.LevelDebug, &out, &errOut)

	log.Info("Video saved to %s with %d frames.", "out.mp4", 3)
	log.Warn("Only %d frame(s) processed.", 1)
	log.Error("Could not open video writer for %s", "out.mp4")

	if strings.Contains(out.String(), "Warning") || strings.Contains(out.String(), "Error") {
		t.Errorf("info lines should not carry a severity, got %q", out.String())
	}
	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines on stderr, got %q", errOut.String())
	}
	if !strings.HasSuffix(lines[0], "Only 1 frame(s) processed.") || strings.HasPrefix(lines[0], "Only") {
		t.Errorf("warning should be prefixed, got %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "Could not open video writer for out.mp4") || strings.HasPrefix(lines[1], "Could") {
		t.Errorf("error should be prefixed, got %q", lines[1])
	}
}

func TestConsoleLogger_Elapsed(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var out bytes.Buffer
	log := NewConsole(ports.LevelInfo, WithColor(false), WithWriters(&out, &out), WithElapsed(clock))

	now = now.Add(2500 * time.Millisecond)
	log.WithComponent("remux").Info("Processed %d frames...", 100)

	if got := out.String(); got != "[    2.5s] [remux] Processed 100 frames...\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestNoop(t *testing.T) {
	log := NewNoop()
	log.Error("error message %s", "ignored")
	log.WithComponent("decode").Warn("warn message %d", 1)
}
