package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSource(t *testing.T) {
	summary := NewBuilder().
		WithSource("drive.mcap", "/camera/image_raw").
		Build()

	if summary.Source.Path != "drive.mcap" {
		t.Errorf("expected path 'drive.mcap', got '%s'", summary.Source.Path)
	}
	if summary.Source.Topic != "/camera/image_raw" {
		t.Errorf("expected topic '/camera/image_raw', got '%s'", summary.Source.Topic)
	}
}

func TestBuilder_WithRunID(t *testing.T) {
	summary := NewBuilder().WithRunID("abc-123").Build()

	if summary.RunID != "abc-123" {
		t.Errorf("expected run ID 'abc-123', got '%s'", summary.RunID)
	}
}

func TestBuilder_WithMessages(t *testing.T) {
	messages := MessageInfo{
		Seen:           120,
		Skipped:        3,
		FellBack:       1,
		FirstLogTimeNs: 1_000,
		LastLogTimeNs:  4_000_001_000,
		DurationSec:    4.0,
		DetectedFPS:    29.25,
	}

	summary := NewBuilder().WithMessages(messages).Build()

	if summary.Messages != messages {
		t.Errorf("expected %+v, got %+v", messages, summary.Messages)
	}
}

func TestBuilder_WithSettings(t *testing.T) {
	settings := Settings{
		Encoding: "bgr8",
		Codec:    "h264",
		FPS:      30,
		Quality:  23,
		Remux:    "auto",
		Overlay:  true,
	}

	summary := NewBuilder().WithSettings(settings).Build()

	if summary.Settings != settings {
		t.Errorf("expected %+v, got %+v", settings, summary.Settings)
	}
}

func TestBuilder_WithVideo(t *testing.T) {
	video := VideoInfo{
		Path:       "out.mp4",
		Mode:       "encode",
		Codec:      "h264",
		FrameCount: 100,
		Width:      640,
		Height:     480,
		FileSize:   102400,
	}

	summary := NewBuilder().WithVideo(video).Build()

	if summary.Video != video {
		t.Errorf("expected %+v, got %+v", video, summary.Video)
	}
}

func TestBuilder_FullChain(t *testing.T) {
	summary := NewBuilder().
		WithRunID("run-1").
		WithSource("drive.mcap", "/camera").
		WithMessages(MessageInfo{Seen: 10}).
		WithSettings(Settings{Encoding: "mono8"}).
		WithVideo(VideoInfo{FrameCount: 10}).
		Build()

	if summary.RunID != "run-1" {
		t.Error("run ID not set correctly")
	}
	if summary.Source.Topic != "/camera" {
		t.Error("source not set correctly")
	}
	if summary.Messages.Seen != 10 {
		t.Error("messages not set correctly")
	}
	if summary.Settings.Encoding != "mono8" {
		t.Error("settings not set correctly")
	}
	if summary.Video.FrameCount != 10 {
		t.Error("video not set correctly")
	}
}
