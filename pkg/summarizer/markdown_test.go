package summarizer

import (
	"strings"
	"testing"
	"time"
)

func fullSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		RunID:       "5f0c6a1e-0000-4000-8000-000000000001",
		Source: SourceInfo{
			Path:  "/data/drive.mcap",
			Topic: "/camera/image_raw",
		},
		Messages: MessageInfo{
			Seen:           101,
			Skipped:        1,
			FellBack:       2,
			FirstLogTimeNs: 1_700_000_000_250_000_000,
			LastLogTimeNs:  1_700_000_010_250_000_000,
			DurationSec:    10,
			DetectedFPS:    10,
		},
		Settings: Settings{
			Encoding: "bgr8",
			Codec:    "h264",
			FPS:      30,
			Quality:  23,
			Remux:    "auto",
			Overlay:  true,
		},
		Video: VideoInfo{
			Path:       "out.mp4",
			Mode:       "encode",
			Codec:      "h264",
			FrameCount: 100,
			Width:      640,
			Height:     480,
			FileSize:   1024 * 1024,
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	formatter := NewMarkdownFormatter()

	result := formatter.Format(fullSummary())

	checks := []string{
		"# Conversion Summary",
		"/data/drive.mcap",
		"/camera/image_raw",
		"| Messages Read | 101 |",
		"| Skipped | 1 |",
		"| Fallback Conversions | 2 |",
		"2023-11-14 22:13:20.250 UTC",
		"2023-11-14 22:13:30.250 UTC",
		"10.00 s",
		"| Detected FPS | 10.00 |",
		"| Quality (CRF) | 23 |",
		"| Bitrate | Default |",
		"| Timestamp Overlay | Yes |",
		"| Frames | 100 |",
		"640x480",
		"1.00 MB",
		"2024-01-15T10:30:00Z",
		"5f0c6a1e-0000-4000-8000-000000000001",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q\n%s", check, result)
		}
	}
}

func TestMarkdownFormatter_Format_NoVideo(t *testing.T) {
	formatter := NewMarkdownFormatter()

	summary := &Summary{
		GeneratedAt: time.Now(),
		Source:      SourceInfo{Path: "empty.mcap", Topic: "/camera"},
	}

	result := formatter.Format(summary)

	if !strings.Contains(result, "No video created.") {
		t.Error("expected output to say no video was created")
	}
	if strings.Contains(result, "| Frames |") {
		t.Error("video table should be omitted")
	}
	if !strings.Contains(result, "| First Log Time | N/A |") {
		t.Error("expected N/A log time when no messages were read")
	}
	if !strings.Contains(result, "| Detected FPS | N/A |") {
		t.Error("expected N/A fps")
	}
}

func TestMarkdownFormatter_EscapesPipes(t *testing.T) {
	summary := fullSummary()
	summary.Video.Path = "a|b.mp4"

	result := NewMarkdownFormatter().Format(summary)

	if !strings.Contains(result, `a\|b.mp4`) {
		t.Error("expected pipe to be escaped")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Conversion Summary": "変換サマリー",
			"Topic":              "トピック",
			"encode":             "エンコード",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	formatter := NewMarkdownFormatter(WithTranslator(translator))

	result := formatter.Format(fullSummary())

	if !strings.Contains(result, "変換サマリー") {
		t.Error("expected translated 'Conversion Summary'")
	}
	if !strings.Contains(result, "トピック") {
		t.Error("expected translated 'Topic'")
	}
	if !strings.Contains(result, "エンコード") {
		t.Error("expected translated mode")
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	formatter := NewMarkdownFormatter(WithVersion("v1.2.0"))

	result := formatter.Format(fullSummary())

	if !strings.Contains(result, "mcapvideo v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
