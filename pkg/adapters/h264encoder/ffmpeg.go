// Package h264encoder encodes frames to MP4 through an external ffmpeg
// process and muxes pre-encoded H.264 access units with mp4ff.
package h264encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/user/mcapvideo/pkg/ports"
)

// Codec names an ffmpeg video encoder.
type Codec string

const (
	// CodecH264 is libx264.
	CodecH264 Codec = "libx264"
	// CodecMPEG4 is ffmpeg's native MPEG-4 Part 2 encoder, tagged mp4v.
	CodecMPEG4 Codec = "mpeg4"
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath overrides ffmpeg discovery. An empty path restores it.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg in PATH and common locations.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpegPath
	pathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	path, err := exec.LookPath(execName)
	if err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// FFmpegEncoder implements ports.VideoEncoder by piping raw frames into an
// ffmpeg process that writes an MP4 to a temporary file.
type FFmpegEncoder struct {
	codec Codec

	mu         sync.Mutex
	width      int // Padded to even
	height     int
	opts       ports.EncoderOptions
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	tempPath   string
	frameCount int
	buf        draw.Image
}

// NewFFmpegEncoder creates an encoder for the given codec.
func NewFFmpegEncoder(codec Codec) *FFmpegEncoder {
	return &FFmpegEncoder{codec: codec}
}

// Codec returns the ffmpeg encoder name.
func (e *FFmpegEncoder) Codec() Codec {
	return e.codec
}

// Begin starts ffmpeg. Odd dimensions are padded to even ones because
// yuv420p needs them.
func (e *FFmpegEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %.2f", fps)
	}

	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return err
	}

	e.closeLocked()
	e.width = width + width%2
	e.height = height + height%2
	e.opts = opts
	e.frameCount = 0
	e.stderr.Reset()

	pixFmt := "gray"
	if opts.Color {
		pixFmt = "rgba"
		e.buf = image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	} else {
		e.buf = image.NewGray(image.Rect(0, 0, e.width, e.height))
	}

	tmpFile, err := os.CreateTemp("", "mcapvideo_*.mp4")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	e.tempPath = tmpFile.Name()
	tmpFile.Close()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", pixFmt,
		"-s", fmt.Sprintf("%dx%d", e.width, e.height),
		"-r", fmt.Sprintf("%.3f", fps),
		"-i", "pipe:0",
	}
	args = append(args, e.codecArgs(opts)...)
	args = append(args, "-movflags", "+faststart", e.tempPath)

	e.cmd = exec.Command(ffmpegPath, args...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		e.closeLocked()
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		e.cmd = nil
		e.closeLocked()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return nil
}

func (e *FFmpegEncoder) codecArgs(opts ports.EncoderOptions) []string {
	switch e.codec {
	case CodecMPEG4:
		args := []string{"-c:v", "mpeg4", "-tag:v", "mp4v", "-pix_fmt", "yuv420p"}
		if opts.Bitrate > 0 {
			return append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
		}
		// Map the 0-63 scale onto mpeg4's qscale 2-31.
		q := 4
		if opts.Quality > 0 && opts.Quality <= 63 {
			q = 2 + opts.Quality*29/63
		}
		return append(args, "-q:v", fmt.Sprintf("%d", q))
	default:
		args := []string{"-c:v", "libx264", "-preset", "fast", "-pix_fmt", "yuv420p"}
		if opts.Quality > 0 && opts.Quality <= 63 {
			// Convert our 0-63 scale to x264's CRF (0-51)
			args = append(args, "-crf", fmt.Sprintf("%d", opts.Quality*51/63))
		} else {
			args = append(args, "-crf", "23")
		}
		if opts.Bitrate > 0 {
			args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
		}
		return args
	}
}

// EncodeFrame writes one frame to ffmpeg. Frames are placed at the top left
// of the padded buffer; the frame rate fixes their timing.
func (e *FFmpegEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return ErrNotInitialized
	}

	bounds := img.Bounds()
	draw.Draw(e.buf, e.buf.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(e.buf, bounds.Sub(bounds.Min), img, bounds.Min, draw.Src)

	var pix []byte
	switch b := e.buf.(type) {
	case *image.RGBA:
		pix = b.Pix
	case *image.Gray:
		pix = b.Pix
	}

	if _, err := e.stdin.Write(pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w (%s)", e.frameCount, err, bytes.TrimSpace(e.stderr.Bytes()))
	}

	e.frameCount++
	return nil
}

// End closes ffmpeg's input, waits for it and returns the MP4 data.
func (e *FFmpegEncoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return nil, ErrNotInitialized
	}
	defer e.closeLocked()

	e.stdin.Close()
	e.stdin = nil

	err := e.cmd.Wait()
	e.cmd = nil
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, e.stderr.String())
	}

	data, err := os.ReadFile(e.tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	return data, nil
}

// Close kills a running ffmpeg and removes the temporary file.
func (e *FFmpegEncoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *FFmpegEncoder) closeLocked() {
	if e.stdin != nil {
		e.stdin.Close()
		e.stdin = nil
	}

	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
		e.cmd.Wait()
	}
	e.cmd = nil

	if e.tempPath != "" {
		os.Remove(e.tempPath)
		e.tempPath = ""
	}
}

// Ensure FFmpegEncoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*FFmpegEncoder)(nil)
