package ports

import (
	"errors"
	"image"
)

// VideoEncoder abstracts video encoding operations.
type VideoEncoder interface {
	// Begin initializes the encoder with the specified dimensions and frame rate.
	Begin(width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame encodes a single frame at the specified timestamp.
	EncodeFrame(img image.Image, timestampMs int) error

	// End finalizes encoding and returns the video data.
	End() ([]byte, error)

	// Close releases any resources still held. It is safe to call after End
	// and on an encoder that was never started.
	Close()
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Bitrate int  // Target bitrate in kbps
	Quality int  // CRF value: 0-63 (lower is higher quality)
	Color   bool // Color output; grayscale when false
}

var (
	// ErrNoKeyframe is returned by StreamMuxer.AddAccessUnit until a
	// keyframe with usable SPS and PPS has been seen.
	ErrNoKeyframe = errors.New("no keyframe with SPS/PPS yet")

	// ErrEmptyAccessUnit is returned by StreamMuxer.AddAccessUnit for units
	// that carry no slice data, such as parameter sets sent on their own.
	ErrEmptyAccessUnit = errors.New("access unit has no slices")
)

// StreamMuxer packs already-encoded access units into a container without
// re-encoding. ErrNoKeyframe and ErrEmptyAccessUnit reject one unit and
// leave the muxer usable.
type StreamMuxer interface {
	// AddAccessUnit appends one Annex-B access unit at the given timestamp.
	AddAccessUnit(data []byte, timestampMs int) error

	// SampleCount returns the number of samples accepted so far.
	SampleCount() int

	// End finalizes the container and returns its bytes.
	End() ([]byte, error)
}

// VideoInfo describes an encoded video file.
type VideoInfo struct {
	Codec       string
	Width       int
	Height      int
	SampleCount int
}

// VideoProber inspects encoded video data.
type VideoProber interface {
	Probe(data []byte) (VideoInfo, error)
}
