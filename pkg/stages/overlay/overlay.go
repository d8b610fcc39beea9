// Package overlay burns the record timestamp into frames.
package overlay

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
)

// TimeFormat is the layout of the burned-in timestamp.
const TimeFormat = "2006-01-02 15:04:05.000"

// Options configures the overlay appearance.
type Options struct {
	FontPath   string
	FontSize   float64
	Color      color.Color
	Background color.Color
	Margin     int
}

// DefaultOptions returns the default overlay appearance: white text on a
// translucent black box in the top left corner.
func DefaultOptions() Options {
	return Options{
		FontSize:   14,
		Color:      color.White,
		Background: color.RGBA{A: 160},
		Margin:     8,
	}
}

// Stage draws each frame's log time onto it.
type Stage struct {
	renderer ports.Renderer
	opts     Options
}

// NewStage creates a new overlay stage.
func NewStage(renderer ports.Renderer, opts Options) *Stage {
	return &Stage{renderer: renderer, opts: opts}
}

// Label returns the text drawn for a log time.
func Label(logTimeNs uint64) string {
	return time.Unix(0, int64(logTimeNs)).UTC().Format(TimeFormat)
}

// Execute returns a copy of the frame with its timestamp drawn on it.
func (s *Stage) Execute(ctx context.Context, frame pipeline.Frame) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame, err
	}

	style := ports.TextStyle{
		FontSize: s.opts.FontSize,
		FontPath: s.opts.FontPath,
		Color:    s.opts.Color,
	}

	text := Label(frame.LogTimeNs)
	canvas := s.renderer.CreateCanvas(frame.Image)
	w, h := canvas.MeasureText(text, style)

	pad := s.opts.Margin / 2
	box := image.Rect(0, 0, int(w)+2*pad, int(h)+2*pad).Add(image.Pt(s.opts.Margin, s.opts.Margin))
	canvas.FillBox(box, pad, s.opts.Background)
	canvas.DrawText(text, box.Min.X+pad, box.Min.Y+box.Dy()/2, style)

	frame.Image = canvas.ToImage()
	return frame, nil
}
