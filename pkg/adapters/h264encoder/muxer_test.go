package h264encoder

import (
	"bytes"
	"errors"
	"os/exec"
	"strconv"
	"testing"

	"github.com/Eyevinn/mp4ff/avc"

	"github.com/user/mcapvideo/pkg/adapters/codecdetect"
	"github.com/user/mcapvideo/pkg/ports"
)

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

// annexBStream encodes a short test pattern with libx264 and splits the raw
// H.264 stream into access units.
func annexBStream(t *testing.T, width, height, frames int) [][]byte {
	t.Helper()
	requireCodec(t, CodecH264)

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		t.Fatalf("FindFFmpeg failed: %v", err)
	}

	out, err := exec.Command(ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size="+strconv.Itoa(width)+"x"+strconv.Itoa(height)+":rate=10",
		"-frames:v", strconv.Itoa(frames),
		"-c:v", "libx264", "-bf", "0", "-pix_fmt", "yuv420p",
		"-f", "h264", "pipe:1",
	).Output()
	if err != nil {
		t.Fatalf("ffmpeg failed: %v", err)
	}

	var units [][]byte
	var cur []byte
	hasSlice := false
	for _, nalu := range avc.ExtractNalusFromByteStream(out) {
		typ := avc.GetNaluType(nalu[0])
		isSlice := typ == avc.NALU_IDR || typ == avc.NALU_NON_IDR
		if hasSlice {
			units = append(units, cur)
			cur, hasSlice = nil, false
		}
		cur = append(cur, 0, 0, 0, 1)
		cur = append(cur, nalu...)
		hasSlice = isSlice
	}
	if hasSlice {
		units = append(units, cur)
	}
	return units
}

func TestMuxer_Remux(t *testing.T) {
	units := annexBStream(t, 64, 48, 8)
	if len(units) != 8 {
		t.Fatalf("expected 8 access units, got %d", len(units))
	}

	m := NewMuxer(10)
	for i, au := range units {
		if err := m.AddAccessUnit(au, i*100); err != nil {
			t.Fatalf("AddAccessUnit %d failed: %v", i, err)
		}
	}
	if m.SampleCount() != 8 {
		t.Errorf("expected 8 samples, got %d", m.SampleCount())
	}

	w, h := m.Dimensions()
	if w != 64 || h != 48 {
		t.Errorf("expected 64x48 from SPS, got %dx%d", w, h)
	}

	data, err := m.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}

	info, err := codecdetect.Probe(bytesReader(data))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Codec != codecdetect.CodecH264 {
		t.Errorf("expected h264, got %s", info.Codec)
	}
	if !info.Fragmented {
		t.Error("expected fragmented MP4")
	}
	if info.SampleCount != 8 {
		t.Errorf("expected 8 samples, got %d", info.SampleCount)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", info.Width, info.Height)
	}
}

func TestMuxer_RejectsLeadingNonKeyframe(t *testing.T) {
	m := NewMuxer(30)

	nonIDR := []byte{0, 0, 0, 1, 0x41, 0x9a, 0x02}
	if err := m.AddAccessUnit(nonIDR, 0); !errors.Is(err, ports.ErrNoKeyframe) {
		t.Errorf("expected ErrNoKeyframe, got %v", err)
	}

	// An IDR slice without parameter sets cannot start the stream either
	idr := []byte{0, 0, 0, 1, 0x65, 0x88, 0x84}
	if err := m.AddAccessUnit(idr, 0); !errors.Is(err, ports.ErrNoKeyframe) {
		t.Errorf("expected ErrNoKeyframe, got %v", err)
	}

	if m.SampleCount() != 0 {
		t.Errorf("expected no samples, got %d", m.SampleCount())
	}
}

// Baseline SPS for a 64x48 stream (4x3 macroblocks, POC type 2) and a
// matching PPS, so muxer tests do not need ffmpeg.
var (
	sps64x48  = []byte{0x67, 0x42, 0xc0, 0x0a, 0xda, 0x11, 0xe4}
	ppsSimple = []byte{0x68, 0xce, 0x3c, 0x80}
	idrSlice  = []byte{0x65, 0x88, 0x84}
	pSlice    = []byte{0x41, 0x9a, 0x02}
	audNALU   = []byte{0x09, 0xf0}
)

func annexB(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, n...)
	}
	return out
}

func TestMuxer_ParameterSetsInOwnUnits(t *testing.T) {
	m := NewMuxer(30)

	// Parameter sets sent on their own before the first keyframe.
	if err := m.AddAccessUnit(annexB(audNALU, sps64x48, ppsSimple), 0); !errors.Is(err, ports.ErrEmptyAccessUnit) {
		t.Fatalf("expected ErrEmptyAccessUnit, got %v", err)
	}
	if err := m.AddAccessUnit(annexB(idrSlice), 33); err != nil {
		t.Fatalf("keyframe after parameter sets failed: %v", err)
	}

	// Repeated parameter sets after the stream started are skipped too.
	if err := m.AddAccessUnit(annexB(sps64x48, ppsSimple), 50); !errors.Is(err, ports.ErrEmptyAccessUnit) {
		t.Errorf("expected ErrEmptyAccessUnit, got %v", err)
	}
	if err := m.AddAccessUnit(annexB(pSlice), 66); err != nil {
		t.Fatalf("P slice failed: %v", err)
	}

	if m.SampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", m.SampleCount())
	}
	if w, h := m.Dimensions(); w != 64 || h != 48 {
		t.Errorf("expected 64x48 from SPS, got %dx%d", w, h)
	}
	if _, err := m.End(); err != nil {
		t.Errorf("End failed: %v", err)
	}
}

func TestMuxer_BadSPSWaitsForNextKeyframe(t *testing.T) {
	m := NewMuxer(30)

	broken := annexB([]byte{0x67, 0x42}, ppsSimple, idrSlice)
	if err := m.AddAccessUnit(broken, 0); !errors.Is(err, ports.ErrNoKeyframe) {
		t.Fatalf("expected ErrNoKeyframe for unparseable SPS, got %v", err)
	}
	if m.SampleCount() != 0 {
		t.Fatalf("expected no samples, got %d", m.SampleCount())
	}

	if err := m.AddAccessUnit(annexB(sps64x48, ppsSimple, idrSlice), 40); err != nil {
		t.Fatalf("valid keyframe failed: %v", err)
	}
	if m.SampleCount() != 1 {
		t.Errorf("expected 1 sample, got %d", m.SampleCount())
	}
}

func TestMuxer_EndWithoutSamples(t *testing.T) {
	if _, err := NewMuxer(30).End(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}
