// Package orchestrator coordinates the conversion of log records to video.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
	"github.com/user/mcapvideo/pkg/stages/encode"
	"github.com/user/mcapvideo/pkg/stages/remux"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("orchestrator: input file not found")

	// ErrInvalidSettings is returned when the settings make every record fail.
	ErrInvalidSettings = errors.New("orchestrator: invalid settings")
)

// fpsWarnThreshold is how far the detected message rate may drift from the
// requested FPS before a warning is logged.
const fpsWarnThreshold = 5.0

// RemuxMode selects how H.264 payloads are handled.
type RemuxMode string

const (
	// RemuxAuto remuxes when the first usable record is H.264.
	RemuxAuto RemuxMode = "auto"
	// RemuxAlways only remuxes; image records are skipped.
	RemuxAlways RemuxMode = "always"
	// RemuxNever only encodes images; H.264 records are skipped.
	RemuxNever RemuxMode = "never"
)

// ParseRemuxMode parses a remux mode name. An empty string is RemuxAuto.
func ParseRemuxMode(s string) (RemuxMode, error) {
	switch m := RemuxMode(s); m {
	case "":
		return RemuxAuto, nil
	case RemuxAuto, RemuxAlways, RemuxNever:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported remux mode %q", s)
	}
}

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	InputPath string
	Topic     string

	// Output
	OutputPath string
	OutDir     string // extract only

	// Decoding
	Encoding pipeline.Encoding
	Fallback bool

	// Encoding
	FPS     float64
	Quality int // CRF: 0-63, 0 uses the codec default
	Bitrate int // kbps

	OverlayTimestamp bool
	Remux            RemuxMode

	// Extraction
	Limit int  // Maximum frames to extract, 0 for all
	Raw   bool // Write message bytes verbatim
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Encoding: pipeline.EncodingBGR8,
		Fallback: true,
		FPS:      30.0,
		Remux:    RemuxAuto,
	}
}

// EncoderFactory opens the video encoder. It is called once, when the
// first frame arrives.
type EncoderFactory func(ctx context.Context) (ports.VideoEncoder, error)

// MuxerFactory creates the H.264 muxer. It is called once, when the first
// access unit arrives.
type MuxerFactory func(fps float64) ports.StreamMuxer

// Dependencies holds the stages and adapters used by the orchestrator.
type Dependencies struct {
	Source   ports.MessageSource
	Decoder  pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	Overlay  pipeline.Stage[pipeline.Frame, pipeline.Frame] // optional
	Renderer ports.Renderer

	NewEncoder EncoderFactory
	NewMuxer   MuxerFactory
	Prober     ports.VideoProber // optional

	FS     ports.FileSystem
	Sink   ports.DebugSink
	Logger ports.Logger
}

// Orchestrator runs the convert, extract and info flows.
type Orchestrator struct {
	source   ports.MessageSource
	decoder  pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	overlay  pipeline.Stage[pipeline.Frame, pipeline.Frame]
	renderer ports.Renderer

	newEncoder EncoderFactory
	newMuxer   MuxerFactory
	prober     ports.VideoProber

	fs     ports.FileSystem
	sink   ports.DebugSink
	logger ports.Logger
}

// New creates a new Orchestrator.
func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{
		source:     deps.Source,
		decoder:    deps.Decoder,
		overlay:    pipeline.Chain(deps.Overlay),
		renderer:   deps.Renderer,
		newEncoder: deps.NewEncoder,
		newMuxer:   deps.NewMuxer,
		prober:     deps.Prober,
		fs:         deps.FS,
		sink:       deps.Sink,
		logger:     deps.Logger,
	}
}

// RunResult contains the results of a conversion for reporting.
type RunResult struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	InputPath  string `json:"inputPath"`
	Topic      string `json:"topic"`
	OutputPath string `json:"outputPath"`
	Encoding   string `json:"encoding"`
	Mode       string `json:"mode"` // "encode", "remux" or empty when nothing was written

	MessagesSeen  int `json:"messagesSeen"`
	FramesWritten int `json:"framesWritten"`
	Skipped       int `json:"skipped"`
	FellBack      int `json:"fellBack"`

	FirstLogTimeNs uint64  `json:"firstLogTimeNs"`
	LastLogTimeNs  uint64  `json:"lastLogTimeNs"`
	DurationSec    float64 `json:"durationSec"`
	TargetFPS      float64 `json:"targetFps"`
	DetectedFPS    float64 `json:"detectedFps"` // 0 when undefined

	Codec         string `json:"codec,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	VideoFileSize int64  `json:"videoFileSize"`
}

// streamKind is what the first usable record decided the run produces.
type streamKind int

const (
	kindNone streamKind = iota
	kindFrames
	kindVideo
)

// run holds the state of one conversion.
type run struct {
	config  Config
	result  RunResult
	kind    streamKind
	encoder *lazyEncoder
	encode  *encode.Stage
	remux   *remux.Stage

	hasTime      bool
	warnedRemux  bool
	warnedFrames bool
	payloads     int
}

// Run converts the topic's records to a video file.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	r := &run{
		config: config,
		result: RunResult{
			RunID:      uuid.NewString(),
			StartedAt:  time.Now(),
			InputPath:  config.InputPath,
			Topic:      config.Topic,
			OutputPath: config.OutputPath,
			Encoding:   string(config.Encoding),
			TargetFPS:  config.FPS,
		},
	}

	if err := o.openInput(ctx, config.InputPath, config.Topic); err != nil {
		return r.result, err
	}
	defer o.source.Close()

	o.logger.Info("Reading MCAP file: %s", config.InputPath)
	o.logger.Info("Looking for topic: %s", config.Topic)
	o.logger.Debug("Run ID: %s", r.result.RunID)

	r.encoder = &lazyEncoder{ctx: ctx, factory: o.newEncoder}
	r.encode = encode.NewStage(r.encoder, o.renderer, o.logger.WithComponent("encode"), pipeline.EncodeSettings{
		FPS:     config.FPS,
		Quality: config.Quality,
		Bitrate: config.Bitrate,
		Desired: config.Encoding,
	})
	defer r.encode.Close()

	loopErr := o.convertLoop(ctx, r)

	var fatal error
	if loopErr != nil {
		switch {
		case errors.Is(loopErr, encode.ErrWriterOpen):
			o.logger.Error("Could not open video writer for %s", config.OutputPath)
			o.logger.Debug("Writer error: %v", loopErr)
			fatal = loopErr
		case errors.Is(loopErr, ErrInvalidSettings):
			o.logger.Error("%s", loopErr)
			fatal = loopErr
		default:
			o.logger.Error("An unexpected error occurred: %v", loopErr)
		}
	}
	if fatal != nil {
		r.result.FinishedAt = time.Now()
		return r.result, fatal
	}

	if err := o.finish(r); err != nil {
		o.logger.Error("Failed to write output: %s", err)
		r.result.FinishedAt = time.Now()
		return r.result, err
	}

	o.report(r)

	r.result.FinishedAt = time.Now()
	o.saveRunJSON(r.result)

	return r.result, loopErr
}

// openInput checks the input exists and opens it for reading topic.
func (o *Orchestrator) openInput(ctx context.Context, path, topic string) error {
	exists, err := o.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("check input: %w", err)
	}
	if !exists {
		o.logger.Error("MCAP file not found at %s", path)
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err := o.source.Open(ctx, path, topic); err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	return nil
}

// convertLoop reads records until the source is exhausted. Per-record
// problems are logged and counted; the returned error ends the run.
func (o *Orchestrator) convertLoop(ctx context.Context, r *run) error {
	for {
		rec, err := o.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		r.result.MessagesSeen++
		if !r.hasTime {
			r.result.FirstLogTimeNs = rec.LogTimeNs
			r.hasTime = true
		}
		r.result.LastLogTimeNs = rec.LogTimeNs

		decoded, err := o.decoder.Execute(ctx, pipeline.DecodeInput{
			Record:   rec,
			Desired:  r.config.Encoding,
			Fallback: r.config.Fallback,
		})
		if err != nil {
			return err
		}

		switch decoded.Outcome {
		case pipeline.OutcomeFatal:
			return fmt.Errorf("%w: %s", ErrInvalidSettings, decoded.Reason)

		case pipeline.OutcomeSkip:
			r.result.Skipped++
			o.logger.Warn("%s", decoded.Reason)

		case pipeline.OutcomeVideo:
			if err := o.handleVideo(ctx, r, rec, decoded); err != nil {
				return err
			}

		case pipeline.OutcomeFrame:
			if err := o.handleFrame(ctx, r, decoded); err != nil {
				return err
			}
		}
	}
}

func (o *Orchestrator) handleFrame(ctx context.Context, r *run, decoded pipeline.DecodeResult) error {
	if r.config.Remux == RemuxAlways || r.kind == kindVideo {
		r.result.Skipped++
		if !r.warnedFrames {
			o.logger.Warn("Skipping image records on topic %s: the stream is being remuxed as H.264", r.config.Topic)
			r.warnedFrames = true
		}
		return nil
	}
	r.kind = kindFrames

	if decoded.Frame.FellBack {
		r.result.FellBack++
	}
	o.savePayload(r, decoded)

	frame := decoded.Frame
	if r.config.OverlayTimestamp {
		var err error
		frame, err = o.overlay.Execute(ctx, frame)
		if err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}

	n, err := r.encode.Execute(ctx, frame)
	if err != nil {
		return err
	}

	if o.sink.Enabled() {
		if err := o.sink.SaveFrame(n, frame.Image); err != nil {
			o.logger.Debug("Failed to save debug frame %d: %v", n, err)
		}
	}
	return nil
}

func (o *Orchestrator) handleVideo(ctx context.Context, r *run, rec ports.Record, decoded pipeline.DecodeResult) error {
	if r.config.Remux == RemuxNever || r.kind == kindFrames {
		r.result.Skipped++
		if !r.warnedRemux {
			o.logger.Warn("Skipping H.264 records on topic %s: compressed video can only be remuxed, not re-encoded", r.config.Topic)
			r.warnedRemux = true
		}
		return nil
	}

	if r.remux == nil {
		r.kind = kindVideo
		o.logger.Info("Topic carries H.264 video, remuxing without re-encoding")
		r.remux = remux.NewStage(o.newMuxer(r.config.FPS), o.logger)
	}

	o.savePayload(r, decoded)

	_, err := r.remux.Execute(ctx, pipeline.AccessUnit{
		Data:      decoded.Payload,
		LogTimeNs: rec.LogTimeNs,
		Keyframe:  decoded.Keyframe,
	})
	return err
}

func (o *Orchestrator) savePayload(r *run, decoded pipeline.DecodeResult) {
	if !o.sink.Enabled() {
		return
	}
	r.payloads++
	ext := decoded.PayloadFormat
	if ext == "" {
		ext = "raw"
	}
	if err := o.sink.SaveRawPayload(r.payloads, decoded.Payload, ext); err != nil {
		o.logger.Debug("Failed to save debug payload %d: %v", r.payloads, err)
	}
}

// finish finalizes whichever writer was used and writes the output file.
// Nothing is written when no frame was produced.
func (o *Orchestrator) finish(r *run) error {
	var (
		encoded pipeline.EncodeResult
		err     error
	)
	switch r.kind {
	case kindFrames:
		r.result.Mode = "encode"
		encoded, err = r.encode.Finish()
	case kindVideo:
		r.result.Mode = "remux"
		encoded, err = r.remux.Finish()
		r.result.Skipped += r.remux.Skipped()
	}
	if err != nil {
		return err
	}

	r.result.FramesWritten = encoded.FrameCount
	if encoded.FrameCount == 0 {
		return nil
	}

	if dir := filepath.Dir(r.config.OutputPath); dir != "" && dir != "." {
		if err := o.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := o.fs.WriteFile(r.config.OutputPath, encoded.VideoData); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	r.result.Width = encoded.Width
	r.result.Height = encoded.Height
	r.result.VideoFileSize = encoded.FileSize

	if o.prober != nil {
		info, err := o.prober.Probe(encoded.VideoData)
		if err != nil {
			o.logger.Debug("Failed to probe output: %v", err)
		} else {
			r.result.Codec = info.Codec
			if info.Width > 0 && info.Height > 0 {
				r.result.Width = info.Width
				r.result.Height = info.Height
			}
		}
	}
	return nil
}

// report logs the completion summary and fills in the timing fields.
func (o *Orchestrator) report(r *run) {
	res := &r.result
	n := res.FramesWritten

	if n == 0 {
		o.logger.Info("No images found on topic '%s' in '%s'. No video created.", r.config.Topic, r.config.InputPath)
		return
	}

	o.logger.Info("Video saved to %s with %d frames.", r.config.OutputPath, n)

	if n <= 1 {
		o.logger.Warn("Only %d frame(s) processed. Video might be very short or empty.", n)
		return
	}

	res.DurationSec = float64(res.LastLogTimeNs-res.FirstLogTimeNs) / 1e9
	actual := math.Inf(1)
	if res.DurationSec > 0 {
		actual = float64(n-1) / res.DurationSec
		res.DetectedFPS = actual
	}

	o.logger.Info("Message duration in MCAP: %.2f s. Actual average FPS from messages: %.2f", res.DurationSec, actual)
	if math.Abs(actual-r.config.FPS) > fpsWarnThreshold {
		o.logger.Warn("Specified FPS (%g) differs significantly from detected average FPS (%.2f). Playback speed might be affected.", r.config.FPS, actual)
	}
}

func (o *Orchestrator) saveRunJSON(result RunResult) {
	if !o.sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		o.logger.Debug("Failed to marshal run result: %v", err)
		return
	}
	if err := o.sink.SaveRunJSON(data); err != nil {
		o.logger.Debug("Failed to save run result: %v", err)
	}
}

// lazyEncoder defers creating the real encoder until Begin, so that a run
// with no frames never opens a writer.
type lazyEncoder struct {
	ctx     context.Context
	factory EncoderFactory
	enc     ports.VideoEncoder
}

func (l *lazyEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	if l.enc == nil {
		if l.factory == nil {
			return errors.New("no encoder configured")
		}
		enc, err := l.factory(l.ctx)
		if err != nil {
			return err
		}
		l.enc = enc
	}
	return l.enc.Begin(width, height, fps, opts)
}

func (l *lazyEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	if l.enc == nil {
		return errors.New("encoder not started")
	}
	return l.enc.EncodeFrame(img, timestampMs)
}

func (l *lazyEncoder) End() ([]byte, error) {
	if l.enc == nil {
		return nil, errors.New("encoder not started")
	}
	return l.enc.End()
}

func (l *lazyEncoder) Close() {
	if l.enc != nil {
		l.enc.Close()
	}
}

var _ ports.VideoEncoder = (*lazyEncoder)(nil)
