package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/user/mcapvideo/pkg/ports"
)

func TestExtract_NumbersFromOne(t *testing.T) {
	pngData := pngBytes(t, 3, 2)
	h := newHarness(
		compressedRecord(1, "png", pngData),
		unknownRecord(2),
		mono8Record(3, 5, 4, 9),
		compressedRecord(4, "h264", h264IDR),
	)

	result, err := h.orchestrator().Extract(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if result.Extracted != 3 || result.Skipped != 1 || result.MessagesSeen != 4 {
		t.Errorf("unexpected result: %+v", result)
	}

	want := []string{"frames/frame_00001.png", "frames/frame_00002.png", "frames/frame_00003.h264"}
	if len(result.Files) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.Files)
	}
	for i, path := range want {
		if result.Files[i] != path {
			t.Errorf("file %d: expected %s, got %s", i, path, result.Files[i])
		}
		if _, ok := h.fs.GetFile(path); !ok {
			t.Errorf("%s not written", path)
		}
	}

	// Compressed payloads are written unchanged.
	if got, _ := h.fs.GetFile(want[0]); !bytes.Equal(got, pngData) {
		t.Error("compressed payload should be written verbatim")
	}
	if got, _ := h.fs.GetFile(want[2]); !bytes.Equal(got, h264IDR) {
		t.Error("h264 payload should be written verbatim")
	}

	// Raw images are normalized to PNG.
	raw, _ := h.fs.GetFile(want[1])
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("raw frame is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 4 {
		t.Errorf("expected 5x4, got %dx%d", b.Dx(), b.Dy())
	}

	if !hasMessage(h.logger.Infos, "Done! Extracted 3 frames.") {
		t.Errorf("missing completion message: %v", h.logger.Infos)
	}
}

func TestExtract_Raw(t *testing.T) {
	rec := compressedRecord(1, "h264", h264IDR)
	h := newHarness(rec, unknownRecord(2))
	config := testConfig()
	config.Raw = true

	result, err := h.orchestrator().Extract(context.Background(), config)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Extracted != 2 {
		t.Errorf("raw mode writes every record, got %d", result.Extracted)
	}
	got, ok := h.fs.GetFile("frames/frame_00001.h264")
	if !ok || !bytes.Equal(got, rec.Data) {
		t.Error("message bytes should be written verbatim")
	}
	if _, ok := h.fs.GetFile("frames/frame_00002.h264"); !ok {
		t.Error("second record should be written")
	}
}

func TestExtract_Limit(t *testing.T) {
	h := newHarness(
		mono8Record(1, 2, 2, 1),
		mono8Record(2, 2, 2, 2),
		mono8Record(3, 2, 2, 3),
	)
	config := testConfig()
	config.Limit = 2

	result, err := h.orchestrator().Extract(context.Background(), config)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Extracted != 2 || result.MessagesSeen != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if _, ok := h.fs.GetFile("frames/frame_00003.png"); ok {
		t.Error("limit should stop extraction")
	}
}

func TestExtract_NoMessages(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator().Extract(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Extracted != 0 {
		t.Errorf("expected nothing extracted, got %d", result.Extracted)
	}
	if !hasMessage(h.logger.Warnings, "No messages found on topic '/camera'. No frames were extracted.") {
		t.Errorf("missing warning: %v", h.logger.Warnings)
	}
}

func TestExtract_ReadError(t *testing.T) {
	h := newHarness(mono8Record(1, 2, 2, 1))
	h.source.ErrAfter = errors.New("truncated chunk")

	result, err := h.orchestrator().Extract(context.Background(), testConfig())
	if err == nil {
		t.Fatal("expected read error")
	}
	if result.Extracted != 1 {
		t.Errorf("frames before the error should be kept, got %d", result.Extracted)
	}
}

func TestExtract_InputNotFound(t *testing.T) {
	h := newHarness()
	config := testConfig()
	config.InputPath = "missing.mcap"

	_, err := h.orchestrator().Extract(context.Background(), config)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	h := newHarness()
	h.source.Channel = []ports.ChannelInfo{
		{ID: 1, Topic: "/camera", SchemaName: "sensor_msgs/msg/Image", MessageEncoding: "cdr", MessageCount: 12},
	}

	channels, err := h.orchestrator().Info(context.Background(), testInput)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if len(channels) != 1 || channels[0].MessageCount != 12 {
		t.Errorf("unexpected channels: %+v", channels)
	}
	if h.source.OpenedTopic != "" {
		t.Errorf("info should open every topic, got %q", h.source.OpenedTopic)
	}
	if !h.source.Closed {
		t.Error("source should be closed")
	}
}
