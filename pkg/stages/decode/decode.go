// Package decode implements the record decoding stage.
//
// One record becomes at most one normalized frame. Recoverable problems are
// reported as pipeline.OutcomeSkip with a reason instead of an error, so the
// caller can log them and keep reading.
package decode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Eyevinn/mp4ff/avc"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
	"github.com/user/mcapvideo/pkg/rosmsg"
)

// Stage decodes image records into frames.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("decode"),
	}
}

// Execute decodes one record.
// The returned error is only set when ctx is done.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.DecodeResult{}, err
	}

	rec := input.Record
	if _, err := pipeline.ParseEncoding(string(input.Desired)); err != nil {
		return fatal(err.Error()), nil
	}

	msg, err := rosmsg.Decode(rec.SchemaName, rec.MessageEncoding, rec.Data)
	if errors.Is(err, rosmsg.ErrUnsupportedSchema) {
		return skip(fmt.Sprintf("Skipping message of unknown type: %s on topic %s", rec.SchemaName, rec.Topic)), nil
	}
	if err != nil {
		return skip(fmt.Sprintf("Failed to deserialize message at log time %d: %v", rec.LogTimeNs, err)), nil
	}

	switch msg.Kind {
	case rosmsg.KindCompressed:
		return s.decodeCompressed(rec, msg.Compressed, input), nil
	default:
		return s.decodeRaw(rec, msg.Raw, input), nil
	}
}

func (s *Stage) decodeCompressed(rec ports.Record, msg *rosmsg.CompressedImage, input pipeline.DecodeInput) pipeline.DecodeResult {
	if msg.IsH264() {
		return pipeline.DecodeResult{
			Outcome:       pipeline.OutcomeVideo,
			Payload:       msg.Data,
			PayloadFormat: "h264",
			Keyframe:      containsIDR(msg.Data),
		}
	}

	format := ports.ParseImageFormat(msg.Format)
	img, err := s.renderer.DecodeImage(msg.Data, format)
	if err != nil {
		return skip(fmt.Sprintf("Failed to decode %s image at log time %d: %v", msg.Format, rec.LogTimeNs, err))
	}

	converted, err := convert(img, "", input.Desired)
	if err != nil {
		return skip(fmt.Sprintf("Failed to convert %s image at log time %d: %v", msg.Format, rec.LogTimeNs, err))
	}

	s.logger.Debug("Decoded %s image %dx%d", msg.Format, img.Bounds().Dx(), img.Bounds().Dy())
	return pipeline.DecodeResult{
		Outcome: pipeline.OutcomeFrame,
		Frame: pipeline.Frame{
			Image:        converted,
			LogTimeNs:    rec.LogTimeNs,
			SourceFormat: strings.ToLower(msg.Format),
		},
		Payload:       msg.Data,
		PayloadFormat: format.Extension(),
	}
}

func (s *Stage) decodeRaw(rec ports.Record, msg *rosmsg.Image, input pipeline.DecodeInput) pipeline.DecodeResult {
	native, err := decodeRaw(msg)
	switch {
	case errors.Is(err, ErrUnsupportedEncoding):
		return skip(fmt.Sprintf("Unsupported encoding for manual conversion: %s", msg.Encoding))
	case errors.Is(err, ErrShortData):
		return skip(fmt.Sprintf("Data size %d is less than expected %d for %dx%d %s. Skipping.",
			len(msg.Data), expectedSize(msg), msg.Width, msg.Height, msg.Encoding))
	case err != nil:
		return skip(fmt.Sprintf("Failed to decode %s image at log time %d: %v", msg.Encoding, rec.LogTimeNs, err))
	}

	frame := pipeline.Frame{
		LogTimeNs:    rec.LogTimeNs,
		SourceFormat: strings.ToLower(msg.Encoding),
	}

	converted, err := convert(native, msg.Encoding, input.Desired)
	if err != nil {
		if !input.Fallback {
			return skip(fmt.Sprintf("Error converting image at log time %d: %v", rec.LogTimeNs, err))
		}
		s.logger.Warn("Attempting fallback encoding passthrough for %s...", msg.Encoding)
		converted = native
		if input.Desired.IsColor() && isGray(native) {
			converted = toColor(native)
		}
		frame.FellBack = true
	}

	frame.Image = converted
	return pipeline.DecodeResult{
		Outcome: pipeline.OutcomeFrame,
		Frame:   frame,
		Payload: msg.Data,
	}
}

func bytesPerPixel(encoding string) int {
	l, ok := lookupLayout(encoding)
	if !ok {
		return 0
	}
	return l.channels * l.bytesPerValue
}

// containsIDR reports whether an Annex-B access unit holds an IDR slice.
func containsIDR(data []byte) bool {
	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) > 0 && avc.GetNaluType(nalu[0]) == avc.NALU_IDR {
			return true
		}
	}
	return false
}

func skip(reason string) pipeline.DecodeResult {
	return pipeline.DecodeResult{Outcome: pipeline.OutcomeSkip, Reason: reason}
}

func fatal(reason string) pipeline.DecodeResult {
	return pipeline.DecodeResult{Outcome: pipeline.OutcomeFatal, Reason: reason}
}
