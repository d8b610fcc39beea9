package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/mcapvideo/pkg/mocks"
	"github.com/user/mcapvideo/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveRunJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	data := []byte(`{"framesWritten": 3}`)
	if err := sink.SaveRunJSON(data); err != nil {
		t.Fatalf("SaveRunJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "run.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveRawPayload(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	data := []byte{0xFF, 0xD8, 0xFF}
	if err := sink.SaveRawPayload(7, data, "jpg"); err != nil {
		t.Fatalf("SaveRawPayload failed: %v", err)
	}
	if err := sink.SaveRawPayload(8, data, ""); err != nil {
		t.Fatalf("SaveRawPayload failed: %v", err)
	}

	for _, name := range []string{"payload-00007.jpg", "payload-00008.bin"} {
		expectedPath := filepath.Join(testBaseDir, "payloads", name)
		if _, ok := fs.GetFile(expectedPath); !ok {
			t.Errorf("expected file to be saved at %s", expectedPath)
		}
	}
}

func TestSink_SaveFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(1, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	if len(renderer.Encoded) != 1 || renderer.Encoded[0] != ports.FormatPNG {
		t.Errorf("expected one PNG encoding, got %v", renderer.Encoded)
	}
	expectedPath := filepath.Join(testBaseDir, "frames", "frame-00001.png")
	if _, ok := fs.GetFile(expectedPath); !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
}

func TestSink_SaveFrameEncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{EncodeErr: errors.New("encode failed")}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(1, image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Error("expected error when encoding fails")
	}
}
