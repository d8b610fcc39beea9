package pipeline

import (
	"fmt"
	"image"
	"strings"

	"github.com/user/mcapvideo/pkg/ports"
)

// =============================================================================
// Encodings
// =============================================================================

// Encoding is the desired pixel layout of the frames handed to the encoder.
type Encoding string

const (
	EncodingBGR8        Encoding = "bgr8"
	EncodingRGB8        Encoding = "rgb8"
	EncodingMono8       Encoding = "mono8"
	EncodingMono16      Encoding = "mono16"
	EncodingPassthrough Encoding = "passthrough"
)

// ParseEncoding parses a desired encoding name, case-insensitively.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case EncodingBGR8, EncodingRGB8, EncodingMono8, EncodingMono16, EncodingPassthrough:
		return e, nil
	default:
		return "", fmt.Errorf("unsupported desired encoding %q", s)
	}
}

// IsColor reports whether the encoding asks for three-channel color output.
func (e Encoding) IsColor() bool {
	return e == EncodingBGR8 || e == EncodingRGB8
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains one record and the desired output layout.
type DecodeInput struct {
	Record   ports.Record
	Desired  Encoding
	Fallback bool // Retry with passthrough when conversion fails
}

// Outcome classifies the result of decoding one record.
type Outcome int

const (
	// OutcomeFrame means a frame was produced.
	OutcomeFrame Outcome = iota
	// OutcomeSkip means the record could not be used; log and continue.
	OutcomeSkip
	// OutcomeVideo means the record carries encoded video (H.264) instead
	// of an image and belongs to the remux path.
	OutcomeVideo
	// OutcomeFatal means no record can succeed with the current settings.
	OutcomeFatal
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFrame:
		return "frame"
	case OutcomeSkip:
		return "skip"
	case OutcomeVideo:
		return "video"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DecodeResult is the outcome of decoding one record.
type DecodeResult struct {
	Outcome Outcome
	Frame   Frame
	Reason  string // Why the record was skipped or fatal

	// Payload is the undecoded image or video payload.
	Payload       []byte
	PayloadFormat string // Compressed format name, empty for raw images
	Keyframe      bool   // Set for OutcomeVideo access units containing an IDR
}

// Frame is one decoded image destined for a single position in the video.
type Frame struct {
	Image        image.Image
	LogTimeNs    uint64
	SourceFormat string // Encoding or compressed format of the source record
	FellBack     bool   // Produced by the passthrough fallback
}

// =============================================================================
// Remux Stage Types
// =============================================================================

// AccessUnit is one encoded H.264 access unit in Annex-B form.
type AccessUnit struct {
	Data      []byte
	LogTimeNs uint64
	Keyframe  bool
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeSettings configures the lazily opened output writer.
type EncodeSettings struct {
	FPS     float64
	Quality int // CRF: 0-63 (lower is higher quality)
	Bitrate int // Target bitrate in kbps
	Desired Encoding
}

// DefaultEncodeSettings returns EncodeSettings with default values.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		FPS:     30.0,
		Quality: 0,
		Desired: EncodingBGR8,
	}
}

// EncodeResult contains the encoded video.
type EncodeResult struct {
	VideoData  []byte
	FrameCount int
	Width      int
	Height     int
	FileSize   int64
}
