// Package mcapvideo provides a high-level API for converting MCAP image
// topics to video.
package mcapvideo

import (
	"image/color"

	"github.com/user/mcapvideo/pkg/orchestrator"
	"github.com/user/mcapvideo/pkg/pipeline"
)

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// GetQualityCRF returns the CRF (0-63, lower is better) for the given preset.
func GetQualityCRF(preset QualityPreset) int {
	switch preset {
	case QualityLow:
		return 45
	case QualityHigh:
		return 18
	default: // medium
		return 30
	}
}

// Config represents the configuration for video generation.
type Config struct {
	// Frames
	Encoding pipeline.Encoding // Desired frame layout (default: bgr8)
	Fallback bool              // Retry failed conversions with passthrough

	// Encoding
	FPS     float64 // Output frame rate (default: 30)
	Quality int     // CRF value (0-63, lower is better, 0 = codec default)
	Bitrate int     // Target bitrate in kbps (0 = quality based)
	Remux   orchestrator.RemuxMode

	// Overlay
	OverlayTimestamp bool
	OverlayColor     color.Color
	OverlayFontSize  float64
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default settings.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: defaults(),
	}
}

func defaults() Config {
	return Config{
		Encoding: pipeline.EncodingBGR8,
		Fallback: true,

		FPS:   30.0,
		Remux: orchestrator.RemuxAuto,

		OverlayColor:    color.White,
		OverlayFontSize: 16,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.FPS <= 0 {
		cfg.FPS = 30.0
	}

	if cfg.Quality < 0 {
		cfg.Quality = 0
	}
	if cfg.Quality > 63 {
		cfg.Quality = 63
	}

	if cfg.Bitrate < 0 {
		cfg.Bitrate = 0
	}

	if cfg.Remux == "" {
		cfg.Remux = orchestrator.RemuxAuto
	}

	if cfg.OverlayFontSize <= 0 {
		cfg.OverlayFontSize = 16
	}

	return cfg
}

// WithEncoding sets the desired frame layout.
func (b *ConfigBuilder) WithEncoding(encoding pipeline.Encoding) *ConfigBuilder {
	b.config.Encoding = encoding
	return b
}

// WithFallback enables or disables the passthrough fallback.
func (b *ConfigBuilder) WithFallback(fallback bool) *ConfigBuilder {
	b.config.Fallback = fallback
	return b
}

// WithFPS sets the output frame rate.
// Values of zero or below are replaced by 30.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithQuality sets the CRF value (0-63, lower is better).
func (b *ConfigBuilder) WithQuality(crf int) *ConfigBuilder {
	b.config.Quality = crf
	return b
}

// WithQualityPreset applies a quality preset (low, medium, high).
func (b *ConfigBuilder) WithQualityPreset(preset QualityPreset) *ConfigBuilder {
	b.config.Quality = GetQualityCRF(preset)
	return b
}

// WithBitrate sets the target bitrate in kbps.
func (b *ConfigBuilder) WithBitrate(kbps int) *ConfigBuilder {
	b.config.Bitrate = kbps
	return b
}

// WithRemux sets how H.264 topics are handled.
func (b *ConfigBuilder) WithRemux(mode orchestrator.RemuxMode) *ConfigBuilder {
	b.config.Remux = mode
	return b
}

// WithOverlayTimestamp enables burning the log time into each frame.
func (b *ConfigBuilder) WithOverlayTimestamp(enabled bool) *ConfigBuilder {
	b.config.OverlayTimestamp = enabled
	return b
}

// WithOverlayColor sets the overlay text color.
func (b *ConfigBuilder) WithOverlayColor(c color.Color) *ConfigBuilder {
	b.config.OverlayColor = c
	return b
}

// WithOverlayFontSize sets the overlay font size in points.
func (b *ConfigBuilder) WithOverlayFontSize(size float64) *ConfigBuilder {
	b.config.OverlayFontSize = size
	return b
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(input, topic, output string) orchestrator.Config {
	return orchestrator.Config{
		InputPath:  input,
		Topic:      topic,
		OutputPath: output,

		Encoding: c.Encoding,
		Fallback: c.Fallback,

		FPS:     c.FPS,
		Quality: c.Quality,
		Bitrate: c.Bitrate,

		OverlayTimestamp: c.OverlayTimestamp,
		Remux:            c.Remux,
	}
}
