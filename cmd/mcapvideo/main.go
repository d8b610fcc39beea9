// Package main provides the CLI entry point for mcapvideo.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/mcapvideo/pkg/adapters/codecdetect"
	"github.com/user/mcapvideo/pkg/adapters/filesink"
	"github.com/user/mcapvideo/pkg/adapters/ggrenderer"
	"github.com/user/mcapvideo/pkg/adapters/h264encoder"
	"github.com/user/mcapvideo/pkg/adapters/logger"
	"github.com/user/mcapvideo/pkg/adapters/mcapreader"
	"github.com/user/mcapvideo/pkg/adapters/nullsink"
	"github.com/user/mcapvideo/pkg/adapters/osfilesystem"
	"github.com/user/mcapvideo/pkg/adapters/smartencoder"
	"github.com/user/mcapvideo/pkg/config"
	"github.com/user/mcapvideo/pkg/gateway"
	"github.com/user/mcapvideo/pkg/mcapvideo"
	"github.com/user/mcapvideo/pkg/orchestrator"
	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
	"github.com/user/mcapvideo/pkg/puzzles"
	"github.com/user/mcapvideo/pkg/stages/decode"
	"github.com/user/mcapvideo/pkg/stages/overlay"
	"github.com/user/mcapvideo/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Convert ConvertCmd `cmd:"" help:"Convert an image topic of an MCAP file to MP4 video."`
	Extract ExtractCmd `cmd:"" help:"Extract the images of a topic as individual files."`
	Info    InfoCmd    `cmd:"" help:"List the channels of an MCAP file."`
	Monitor MonitorCmd `cmd:"" help:"Check whether a gateway has reported recently."`
	Puzzle  PuzzleCmd  `cmd:"" help:"Small algorithm exercises."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// LogFlags are the logging options shared by the file commands.
type LogFlags struct {
	LogLevel   string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Quiet      bool   `short:"Q" help:"Suppress all log output."`
	Timestamps bool   `help:"Prefix log lines with the elapsed time."`
}

func (f LogFlags) newLogger() ports.Logger {
	if f.Quiet {
		return logger.NewNoop()
	}
	var opts []logger.Option
	if f.Timestamps {
		opts = append(opts, logger.WithElapsed(nil))
	}
	return logger.NewConsole(ports.ParseLogLevel(f.LogLevel), opts...)
}

// ConvertCmd defines the convert subcommand.
type ConvertCmd struct {
	// Positional arguments, optional when given in the config file
	Input  string `arg:"" optional:"" help:"Input MCAP file."`
	Topic  string `arg:"" optional:"" help:"Image topic to convert."`
	Output string `arg:"" optional:"" help:"Output MP4 file path."`

	Config string `short:"c" type:"existingfile" help:"YAML or TOML config file. Flags override its values."`

	// Frame options
	Encoding   *string `short:"e" help:"Desired frame encoding (bgr8, rgb8, mono8, mono16, passthrough)."`
	NoFallback bool    `help:"Do not retry failed conversions with passthrough."`

	// Video options
	Codec         *string  `help:"Video codec (h264, mpeg4)."`
	FPS           *float64 `short:"f" name:"fps" help:"Output frame rate (default: 30)."`
	Quality       *int     `short:"q" help:"Video CRF value (0-63, lower is better)."`
	QualityPreset *string  `help:"Quality preset (low, medium, high)."`
	Bitrate       *int     `short:"b" help:"Target bitrate in kbps (overrides quality)."`
	Remux         *string  `help:"H.264 passthrough mode (auto, always, never)."`
	FFmpegPath    string   `help:"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)."`

	// Overlay options
	OverlayTimestamp bool     `help:"Burn each message's log time into its frame."`
	OverlayColor     *string  `help:"Overlay text color (hex, e.g., #ffffff)."`
	OverlayFontSize  *float64 `help:"Overlay font size in points."`

	// Report options
	Summary string `help:"Write a Markdown summary of the run to this path."`

	// Debug options
	Debug    bool    `short:"d" help:"Enable debug output."`
	DebugDir *string `help:"Directory for debug output (default: ./debug)."`

	LogFlags `embed:""`
}

// ExtractCmd defines the extract subcommand.
type ExtractCmd struct {
	Input  string `arg:"" help:"Input MCAP file."`
	Topic  string `arg:"" help:"Image topic to extract."`
	OutDir string `arg:"" help:"Directory to write frames to."`

	Limit int  `short:"n" help:"Maximum number of frames (0 = all)."`
	Raw   bool `help:"Write message bytes verbatim as frame_%05d.h264."`

	LogFlags `embed:""`
}

// InfoCmd defines the info subcommand.
type InfoCmd struct {
	Input string `arg:"" help:"Input MCAP file."`

	LogFlags `embed:""`
}

// MonitorCmd defines the monitor subcommand.
type MonitorCmd struct {
	Endpoint  string        `default:"https://api.srcful.dev" help:"GraphQL endpoint."`
	GatewayID string        `default:"01239e884755621dee" help:"Gateway identifier."`
	Threshold time.Duration `default:"5m" help:"Age after which the gateway is offline."`
	Timeout   time.Duration `default:"30s" help:"HTTP request timeout."`

	LogFlags `embed:""`
}

// PuzzleCmd groups the puzzle subcommands.
type PuzzleCmd struct {
	Letters LettersCmd `cmd:"" help:"Print the letters two strings have in common."`
	Median  MedianCmd  `cmd:"" help:"Print the median of two sorted arrays."`
	Common  CommonCmd  `cmd:"" help:"Count the elements two sorted distinct arrays share."`
	Alien   AlienCmd   `cmd:"" help:"Check whether words are sorted in an alien alphabet."`
}

// LettersCmd defines the puzzle letters subcommand.
type LettersCmd struct {
	A string `arg:"" optional:"" help:"First string (prompted when missing)."`
	B string `arg:"" optional:"" help:"Second string (prompted when missing)."`
}

// MedianCmd defines the puzzle median subcommand.
type MedianCmd struct {
	A []int `help:"First sorted array, comma separated."`
	B []int `help:"Second sorted array, comma separated."`
}

// CommonCmd defines the puzzle common subcommand.
type CommonCmd struct {
	A []int `help:"First sorted array, comma separated."`
	B []int `help:"Second sorted array, comma separated."`
}

// AlienCmd defines the puzzle alien subcommand.
type AlienCmd struct {
	Order string   `required:"" help:"Alphabet order, e.g. hlabcdefgijkmnopqrstuvwxyz."`
	Words []string `arg:"" help:"Words to check."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("mcapvideo"),
		kong.Description("Convert image topics of MCAP robotics logs to MP4 video."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newOrchestrator wires the adapters and stages shared by the file commands.
func newOrchestrator(log ports.Logger, sink ports.DebugSink, fs ports.FileSystem, renderer ports.Renderer, newEncoder orchestrator.EncoderFactory, ov pipeline.Stage[pipeline.Frame, pipeline.Frame]) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Dependencies{
		Source:   mcapreader.New(log),
		Decoder:  decode.NewStage(renderer, log),
		Overlay:  ov,
		Renderer: renderer,

		NewEncoder: newEncoder,
		NewMuxer: func(fps float64) ports.StreamMuxer {
			return h264encoder.NewMuxer(fps)
		},
		Prober: codecdetect.NewProber(),

		FS:     fs,
		Sink:   sink,
		Logger: log,
	})
}

// Run executes the convert command.
func (cmd *ConvertCmd) Run() error {
	file, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	if file.Input == "" || file.Topic == "" || file.Output == "" {
		return errors.New(l10n.T("input, topic and output are required (as arguments or in the config file)"))
	}

	cfg, err := cmd.buildConfig(file)
	if err != nil {
		return err
	}
	codec, err := smartencoder.ParseCodec(file.Codec)
	if err != nil {
		return err
	}

	log := cmd.newLogger()
	ctx, cancel := signalContext(log)
	defer cancel()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	// Create debug sink
	var sink ports.DebugSink
	if file.Debug {
		if err := fs.MkdirAll(file.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(file.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	overlayOpts := overlay.DefaultOptions()
	overlayOpts.FontPath = file.Overlay.FontPath
	overlayOpts.FontSize = cfg.OverlayFontSize
	overlayOpts.Color = cfg.OverlayColor
	if file.Overlay.Background != "" {
		overlayOpts.Background = config.ParseColor(file.Overlay.Background)
	}

	newEncoder := func(ctx context.Context) (ports.VideoEncoder, error) {
		enc, info, err := smartencoder.New(ctx, codec, smartencoder.Options{
			FFmpegPath: file.FFmpegPath,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("Using encoder %s (%s)", info.Encoder, info.Codec)
		return enc, nil
	}

	orch := newOrchestrator(log, sink, fs, renderer, newEncoder, overlay.NewStage(renderer, overlayOpts))

	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig(file.Input, file.Topic, file.Output))

	if cmd.Summary != "" && (runErr == nil || result.MessagesSeen > 0) {
		writer := summarizer.NewWriter(
			summarizer.NewMarkdownFormatter(
				summarizer.WithTranslator(l10n.T),
				summarizer.WithVersion(version),
			),
			fs,
		)
		if err := writer.Write(cmd.Summary, buildSummary(result, cfg, file.Codec)); err != nil {
			log.Error("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", cmd.Summary)
		}
	}

	return runErr
}

// loadConfig reads the config file, if any, and applies the positional
// arguments and flags on top of it.
func (cmd *ConvertCmd) loadConfig() (config.Config, error) {
	file := config.Defaults()
	if cmd.Config != "" {
		loaded, err := config.LoadFromFile(cmd.Config)
		if err != nil {
			return file, err
		}
		file = loaded
	}

	if cmd.Input != "" {
		file.Input = cmd.Input
	}
	if cmd.Topic != "" {
		file.Topic = cmd.Topic
	}
	if cmd.Output != "" {
		file.Output = cmd.Output
	}
	if cmd.Encoding != nil {
		file.Encoding = *cmd.Encoding
	}
	if cmd.NoFallback {
		file.Fallback = false
	}
	if cmd.Codec != nil {
		file.Codec = *cmd.Codec
	}
	if cmd.FPS != nil {
		file.FPS = *cmd.FPS
	}
	if cmd.QualityPreset != nil {
		switch preset := mcapvideo.QualityPreset(*cmd.QualityPreset); preset {
		case mcapvideo.QualityLow, mcapvideo.QualityMedium, mcapvideo.QualityHigh:
			file.Quality = mcapvideo.GetQualityCRF(preset)
		default:
			return file, fmt.Errorf("unsupported quality preset %q", *cmd.QualityPreset)
		}
	}
	if cmd.Quality != nil {
		file.Quality = *cmd.Quality
	}
	if cmd.Bitrate != nil {
		file.Bitrate = *cmd.Bitrate
	}
	if cmd.Remux != nil {
		file.Remux = *cmd.Remux
	}
	if cmd.FFmpegPath != "" {
		file.FFmpegPath = cmd.FFmpegPath
	}
	if cmd.OverlayTimestamp {
		file.Overlay.Enabled = true
	}
	if cmd.OverlayColor != nil {
		file.Overlay.Color = *cmd.OverlayColor
	}
	if cmd.OverlayFontSize != nil {
		file.Overlay.FontSize = *cmd.OverlayFontSize
	}
	if cmd.Debug {
		file.Debug = true
	}
	if cmd.DebugDir != nil {
		file.DebugDir = *cmd.DebugDir
	}

	return file, nil
}

// buildConfig validates the merged settings through the ConfigBuilder.
func (cmd *ConvertCmd) buildConfig(file config.Config) (mcapvideo.Config, error) {
	encoding, err := pipeline.ParseEncoding(file.Encoding)
	if err != nil {
		return mcapvideo.Config{}, err
	}
	remux, err := orchestrator.ParseRemuxMode(file.Remux)
	if err != nil {
		return mcapvideo.Config{}, err
	}

	return mcapvideo.NewConfigBuilder().
		WithEncoding(encoding).
		WithFallback(file.Fallback).
		WithFPS(file.FPS).
		WithQuality(file.Quality).
		WithBitrate(file.Bitrate).
		WithRemux(remux).
		WithOverlayTimestamp(file.Overlay.Enabled).
		WithOverlayColor(config.ParseColor(file.Overlay.Color)).
		WithOverlayFontSize(file.Overlay.FontSize).
		Build(), nil
}

// buildSummary converts a run result into a Summary.
func buildSummary(result orchestrator.RunResult, cfg mcapvideo.Config, codec string) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithRunID(result.RunID).
		WithSource(result.InputPath, result.Topic).
		WithMessages(summarizer.MessageInfo{
			Seen:           result.MessagesSeen,
			Skipped:        result.Skipped,
			FellBack:       result.FellBack,
			FirstLogTimeNs: result.FirstLogTimeNs,
			LastLogTimeNs:  result.LastLogTimeNs,
			DurationSec:    result.DurationSec,
			DetectedFPS:    result.DetectedFPS,
		}).
		WithSettings(summarizer.Settings{
			Encoding: string(cfg.Encoding),
			Codec:    codec,
			FPS:      cfg.FPS,
			Quality:  cfg.Quality,
			Bitrate:  cfg.Bitrate,
			Remux:    string(cfg.Remux),
			Overlay:  cfg.OverlayTimestamp,
		}).
		WithVideo(summarizer.VideoInfo{
			Path:       result.OutputPath,
			Mode:       result.Mode,
			Codec:      result.Codec,
			FrameCount: result.FramesWritten,
			Width:      result.Width,
			Height:     result.Height,
			FileSize:   result.VideoFileSize,
		}).
		Build()
}

// Run executes the extract command.
func (cmd *ExtractCmd) Run() error {
	log := cmd.newLogger()
	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	orch := newOrchestrator(log, nullsink.New(), fs, renderer, nil, nil)

	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = cmd.Input
	cfg.Topic = cmd.Topic
	cfg.OutDir = cmd.OutDir
	cfg.Limit = cmd.Limit
	cfg.Raw = cmd.Raw

	_, err := orch.Extract(ctx, cfg)
	return err
}

// Run executes the info command.
func (cmd *InfoCmd) Run() error {
	log := cmd.newLogger()
	ctx, cancel := signalContext(log)
	defer cancel()

	orch := newOrchestrator(log, nullsink.New(), osfilesystem.New(), ggrenderer.New(), nil, nil)
	channels, err := orch.Info(ctx, cmd.Input)
	if err != nil {
		return err
	}

	printChannels(os.Stdout, channels)
	return nil
}

func printChannels(w io.Writer, channels []ports.ChannelInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		l10n.T("ID"), l10n.T("Topic"), l10n.T("Schema"), l10n.T("Encoding"), l10n.T("Messages"))
	for _, ch := range channels {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", ch.ID, ch.Topic, ch.SchemaName, ch.MessageEncoding, ch.MessageCount)
	}
	tw.Flush()
}

// Run executes the monitor command.
func (cmd *MonitorCmd) Run() error {
	log := cmd.newLogger()
	ctx, cancel := signalContext(log)
	defer cancel()

	monitor := gateway.New(log,
		gateway.WithHTTPClient(&http.Client{Timeout: cmd.Timeout}),
		gateway.WithEndpoint(cmd.Endpoint),
		gateway.WithGatewayID(cmd.GatewayID),
		gateway.WithThreshold(cmd.Threshold),
	)

	report, err := monitor.Check(ctx)
	if err != nil {
		return err
	}

	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, report gateway.Report) {
	fmt.Fprintln(w, l10n.F("Status code: %d", report.StatusCode))
	fmt.Fprintln(w, l10n.F("Latest: %s", report.Latest.Format(time.RFC3339Nano)))
	fmt.Fprintln(w, l10n.F("Now: %s", report.Now.Format(time.RFC3339Nano)))
	fmt.Fprintln(w, l10n.F("Difference: %s", report.Difference))
	fmt.Fprintln(w, report.Status)
}

// Run executes the puzzle letters command.
func (cmd *LettersCmd) Run() error {
	in := bufio.NewReader(os.Stdin)

	a, err := argOrPrompt(in, os.Stdout, cmd.A, l10n.T("Enter first string: "))
	if err != nil {
		return err
	}
	b, err := argOrPrompt(in, os.Stdout, cmd.B, l10n.T("Enter second string: "))
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("Common letters: %s", "{"+strings.Join(puzzles.CommonLetters(a, b), ", ")+"}"))
	return nil
}

// argOrPrompt returns arg when set, otherwise reads one line from in.
func argOrPrompt(in *bufio.Reader, out io.Writer, arg, prompt string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Run executes the puzzle median command.
func (cmd *MedianCmd) Run() error {
	median, err := puzzles.MedianSortedArrays(cmd.A, cmd.B)
	if err != nil {
		return err
	}
	fmt.Println(median)
	return nil
}

// Run executes the puzzle common command.
func (cmd *CommonCmd) Run() error {
	fmt.Println(puzzles.CountCommonSorted(cmd.A, cmd.B))
	return nil
}

// Run executes the puzzle alien command.
func (cmd *AlienCmd) Run() error {
	sorted, err := puzzles.IsAlienSorted(cmd.Words, cmd.Order)
	if err != nil {
		return err
	}
	fmt.Println(sorted)
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("mcapvideo version %s", version))
	return nil
}
