package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/mcapvideo/pkg/config"
	"github.com/user/mcapvideo/pkg/gateway"
	"github.com/user/mcapvideo/pkg/orchestrator"
	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convert.yaml")
	content := "input: from-file.mcap\ntopic: /file/topic\noutput: file.mp4\nfps: 15\nencoding: mono8\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	fps := 24.0
	preset := "high"
	cmd := ConvertCmd{
		Topic:            "/camera",
		Config:           path,
		FPS:              &fps,
		QualityPreset:    &preset,
		NoFallback:       true,
		OverlayTimestamp: true,
	}

	file, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if file.Input != "from-file.mcap" {
		t.Errorf("input should come from the file, got %q", file.Input)
	}
	if file.Topic != "/camera" {
		t.Errorf("topic flag should win, got %q", file.Topic)
	}
	if file.FPS != 24 {
		t.Errorf("fps flag should win, got %v", file.FPS)
	}
	if file.Encoding != "mono8" {
		t.Errorf("encoding should come from the file, got %q", file.Encoding)
	}
	if file.Quality != 18 {
		t.Errorf("high preset should give CRF 18, got %d", file.Quality)
	}
	if file.Fallback || !file.Overlay.Enabled {
		t.Errorf("boolean flags not applied: %+v", file)
	}

	cfg, err := cmd.buildConfig(file)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Encoding != pipeline.EncodingMono8 || cfg.Remux != orchestrator.RemuxAuto {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_InvalidPreset(t *testing.T) {
	preset := "ultra"
	cmd := ConvertCmd{QualityPreset: &preset}
	if _, err := cmd.loadConfig(); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestBuildConfig_InvalidEncoding(t *testing.T) {
	cmd := ConvertCmd{}
	file := config.Defaults()
	file.Encoding = "yuv"
	if _, err := cmd.buildConfig(file); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestArgOrPrompt(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("NAINA\nREENE"))
	var out bytes.Buffer

	a, err := argOrPrompt(in, &out, "", "first: ")
	if err != nil || a != "NAINA" {
		t.Fatalf("expected NAINA, got %q (%v)", a, err)
	}
	b, err := argOrPrompt(in, &out, "", "second: ")
	if err != nil || b != "REENE" {
		t.Fatalf("last line without newline should be read, got %q (%v)", b, err)
	}
	if out.String() != "first: second: " {
		t.Errorf("unexpected prompts %q", out.String())
	}

	given, err := argOrPrompt(in, &out, "given", "ignored: ")
	if err != nil || given != "given" {
		t.Errorf("argument should be used as is, got %q", given)
	}
	if _, err := argOrPrompt(in, &out, "", "empty: "); err == nil {
		t.Error("expected error at end of input")
	}
}

func TestPrintReport(t *testing.T) {
	latest := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printReport(&out, gateway.Report{
		StatusCode: 200,
		Latest:     latest,
		Now:        latest.Add(6 * time.Minute),
		Difference: 6 * time.Minute,
		Status:     gateway.StatusOffline,
	})

	text := out.String()
	for _, want := range []string{"200", "2024-05-01T12:00:00Z", "6m0s", "Offline"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestPrintChannels(t *testing.T) {
	var out bytes.Buffer
	printChannels(&out, []ports.ChannelInfo{
		{ID: 1, Topic: "/camera", SchemaName: "sensor_msgs/msg/Image", MessageEncoding: "cdr", MessageCount: 42},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out.String())
	}
	if !strings.Contains(lines[1], "/camera") || !strings.Contains(lines[1], "42") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestBuildSummary(t *testing.T) {
	result := orchestrator.RunResult{
		RunID:         "run-1",
		InputPath:     "in.mcap",
		Topic:         "/camera",
		OutputPath:    "out.mp4",
		Mode:          "encode",
		MessagesSeen:  10,
		FramesWritten: 9,
		Skipped:       1,
		Codec:         "avc1",
	}
	cmd := ConvertCmd{}
	file, err := cmd.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := cmd.buildConfig(file)
	if err != nil {
		t.Fatal(err)
	}

	summary := buildSummary(result, cfg, "h264")
	if summary.RunID != "run-1" || summary.Source.Topic != "/camera" {
		t.Errorf("unexpected source: %+v", summary)
	}
	if summary.Messages.Seen != 10 || summary.Video.FrameCount != 9 || summary.Video.Codec != "avc1" {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.Settings.Codec != "h264" || summary.Settings.FPS != 30 {
		t.Errorf("unexpected settings: %+v", summary.Settings)
	}
}
