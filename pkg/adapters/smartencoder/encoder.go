// Package smartencoder provides a video encoder that selects the best codec
// ffmpeg offers, with fallback support.
package smartencoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/mcapvideo/pkg/adapters/h264encoder"
	"github.com/user/mcapvideo/pkg/ports"
)

// Codec represents the video codec type.
type Codec string

const (
	// CodecH264 represents H.264/AVC codec.
	CodecH264 Codec = "h264"
	// CodecMPEG4 represents MPEG-4 Part 2 (fourcc mp4v).
	CodecMPEG4 Codec = "mpeg4"
)

// ParseCodec parses a codec name.
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case CodecH264, "avc", "libx264":
		return CodecH264, nil
	case CodecMPEG4, "mp4v":
		return CodecMPEG4, nil
	default:
		return "", fmt.Errorf("unsupported codec %q", s)
	}
}

// Info contains information about the selected encoder.
type Info struct {
	// Codec is the actual codec being used.
	Codec Codec
	// Encoder is the ffmpeg encoder name.
	Encoder string
	// RequestedCodec is the codec that was originally requested.
	RequestedCodec Codec
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
}

// Options configures the smart encoder behavior.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// DisableFallback turns off the H.264 to MPEG-4 fallback.
	DisableFallback bool
	// Logger is used to log fallback warnings.
	Logger ports.Logger
	// Probe reports whether ffmpeg has an encoder. Defaults to
	// h264encoder.HasCodec.
	Probe func(ctx context.Context, codec h264encoder.Codec) (bool, error)
}

var (
	// ErrNoEncoderAvailable is returned when no encoder is available.
	ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")
)

// New creates a new video encoder with automatic codec selection.
//
// The selection flow for H.264:
//  1. Use ffmpeg's libx264
//  2. Unless DisableFallback is set, fall back to ffmpeg's mpeg4
func New(ctx context.Context, preferred Codec, opts Options) (*h264encoder.FFmpegEncoder, Info, error) {
	if opts.FFmpegPath != "" {
		h264encoder.SetFFmpegPath(opts.FFmpegPath)
	}
	if opts.Probe == nil {
		opts.Probe = h264encoder.HasCodec
	}

	info := Info{RequestedCodec: preferred}

	switch preferred {
	case CodecMPEG4:
		return selectEncoder(ctx, opts, info, CodecMPEG4, h264encoder.CodecMPEG4)
	default:
		enc, selected, err := selectEncoder(ctx, opts, info, CodecH264, h264encoder.CodecH264)
		if err == nil || opts.DisableFallback || errors.Is(err, h264encoder.ErrFFmpegNotFound) {
			return enc, selected, err
		}

		if opts.Logger != nil {
			opts.Logger.Warn("H.264 encoder not available, falling back to MPEG-4")
		}
		info.FallbackUsed = true
		return selectEncoder(ctx, opts, info, CodecMPEG4, h264encoder.CodecMPEG4)
	}
}

func selectEncoder(ctx context.Context, opts Options, info Info, codec Codec, ffcodec h264encoder.Codec) (*h264encoder.FFmpegEncoder, Info, error) {
	ok, err := opts.Probe(ctx, ffcodec)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrNoEncoderAvailable, err)
	}
	if !ok {
		return nil, Info{}, fmt.Errorf("%w: %w: %s", ErrNoEncoderAvailable, h264encoder.ErrCodecUnavailable, ffcodec)
	}

	info.Codec = codec
	info.Encoder = string(ffcodec)
	return h264encoder.NewFFmpegEncoder(ffcodec), info, nil
}

// IsH264Available checks if ffmpeg can encode H.264.
func IsH264Available(ctx context.Context) bool {
	ok, err := h264encoder.HasCodec(ctx, h264encoder.CodecH264)
	return err == nil && ok
}
