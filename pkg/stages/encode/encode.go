// Package encode implements the streaming video encoding stage.
package encode

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
)

// ErrWriterOpen is returned when the output writer cannot be started.
var ErrWriterOpen = errors.New("encode: could not open video writer")

// progressInterval is how often, in frames, progress is logged.
const progressInterval = 100

// Stage appends frames to a video. The encoder is started lazily by the
// first frame, whose size fixes the video dimensions.
type Stage struct {
	encoder  ports.VideoEncoder
	renderer ports.Renderer
	logger   ports.Logger
	settings pipeline.EncodeSettings

	started bool
	color   bool
	width   int
	height  int
	frames  int
}

// NewStage creates a new encode stage.
func NewStage(encoder ports.VideoEncoder, renderer ports.Renderer, logger ports.Logger, settings pipeline.EncodeSettings) *Stage {
	return &Stage{
		encoder:  encoder,
		renderer: renderer,
		logger:   logger,
		settings: settings,
	}
}

// Execute appends one frame and returns the number of frames written so far.
func (s *Stage) Execute(ctx context.Context, frame pipeline.Frame) (int, error) {
	if err := ctx.Err(); err != nil {
		return s.frames, err
	}

	img := frame.Image
	bounds := img.Bounds()

	if !s.started {
		if err := s.begin(img); err != nil {
			return s.frames, err
		}
	}

	if bounds.Dx() != s.width || bounds.Dy() != s.height {
		s.logger.Warn("Frame size %dx%d differs from video size %dx%d, resizing",
			bounds.Dx(), bounds.Dy(), s.width, s.height)
		img = s.renderer.ResizeImage(img, s.width, s.height)
	}

	timestampMs := int(float64(s.frames) * 1000 / s.settings.FPS)
	if err := s.encoder.EncodeFrame(img, timestampMs); err != nil {
		return s.frames, fmt.Errorf("encode frame %d: %w", s.frames, err)
	}

	s.frames++
	if s.frames%progressInterval == 0 {
		s.logger.Info("Processed %d frames...", s.frames)
	}
	return s.frames, nil
}

func (s *Stage) begin(first image.Image) error {
	bounds := first.Bounds()
	s.width = bounds.Dx()
	s.height = bounds.Dy()

	switch s.settings.Desired {
	case pipeline.EncodingBGR8, pipeline.EncodingRGB8:
		s.color = true
	case pipeline.EncodingMono8, pipeline.EncodingMono16:
		s.color = false
	default:
		s.color = !isGray(first)
	}

	opts := ports.EncoderOptions{
		Bitrate: s.settings.Bitrate,
		Quality: s.settings.Quality,
		Color:   s.color,
	}

	if err := s.encoder.Begin(s.width, s.height, s.settings.FPS, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrWriterOpen, err)
	}
	s.started = true

	s.logger.Debug("Encoding %dx%d at %.1f fps (color: %v)", s.width, s.height, s.settings.FPS, s.color)
	return nil
}

// Started reports whether the writer has been opened.
func (s *Stage) Started() bool {
	return s.started
}

// Frames returns the number of frames written.
func (s *Stage) Frames() int {
	return s.frames
}

// Finish finalizes the video. It returns an empty result when no frame was
// ever written.
func (s *Stage) Finish() (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}
	if !s.started || s.frames == 0 {
		return result, nil
	}

	data, err := s.encoder.End()
	if err != nil {
		return result, fmt.Errorf("end encoding: %w", err)
	}

	result.VideoData = data
	result.FrameCount = s.frames
	result.Width = s.width
	result.Height = s.height
	result.FileSize = int64(len(data))

	return result, nil
}

// Close releases the encoder however the run ended.
func (s *Stage) Close() {
	s.encoder.Close()
}

func isGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}
