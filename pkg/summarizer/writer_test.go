package summarizer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/user/mcapvideo/pkg/mocks"
)

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string {
		return "summary for " + s.Source.Topic
	}), fs)

	summary := NewBuilder().WithSource("in.mcap", "/camera").Build()
	if err := w.Write("reports/summary.md", summary); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, ok := fs.GetFile("reports/summary.md")
	if !ok {
		t.Fatal("summary file not written")
	}
	if string(data) != "summary for /camera" {
		t.Errorf("unexpected content: %q", data)
	}
	if exists, _ := fs.Exists("reports"); !exists {
		t.Error("parent directory should be created")
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.FailWrite("summary.md", errors.New("disk full"))
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("summary.md", NewSummary()); err == nil {
		t.Error("expected write error")
	}
}

func TestWriter_JSONByExtension(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(NewMarkdownFormatter(), fs)

	summary := NewBuilder().
		WithSource("in.mcap", "/camera").
		WithVideo(VideoInfo{Path: "out.mp4", Mode: "encode", FrameCount: 12}).
		Build()
	if err := w.Write("summary.JSON", summary); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := fs.GetFile("summary.JSON")
	var decoded struct {
		Source struct {
			Topic string `json:"topic"`
		} `json:"source"`
		Video struct {
			FrameCount int `json:"frame_count"`
		} `json:"video"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, data)
	}
	if decoded.Source.Topic != "/camera" || decoded.Video.FrameCount != 12 {
		t.Errorf("unexpected summary: %+v", decoded)
	}

	if _, ok := w.FormatterFor("summary.md").(*MarkdownFormatter); !ok {
		t.Error("markdown paths should use the configured formatter")
	}
}
