// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/user/mcapvideo/pkg/orchestrator"
	"github.com/user/mcapvideo/pkg/pipeline"
)

// Config represents the full configuration for mcapvideo.
type Config struct {
	// Input/Output
	Input  string `yaml:"input" toml:"input"`
	Topic  string `yaml:"topic" toml:"topic"`
	Output string `yaml:"output" toml:"output"`

	// Decoding
	Encoding string `yaml:"encoding" toml:"encoding"`
	Fallback bool   `yaml:"fallback" toml:"fallback"`

	// Encoding
	Codec      string  `yaml:"codec" toml:"codec"`
	FPS        float64 `yaml:"fps" toml:"fps"`
	Quality    int     `yaml:"quality" toml:"quality"`
	Bitrate    int     `yaml:"bitrate" toml:"bitrate"`
	Remux      string  `yaml:"remux" toml:"remux"`
	FFmpegPath string  `yaml:"ffmpeg_path" toml:"ffmpeg_path"`

	// Overlay
	Overlay OverlayConfig `yaml:"overlay" toml:"overlay"`

	// Debug
	Debug    bool   `yaml:"debug" toml:"debug"`
	DebugDir string `yaml:"debug_dir" toml:"debug_dir"`
}

// OverlayConfig represents the timestamp overlay settings.
type OverlayConfig struct {
	Enabled    bool    `yaml:"enabled" toml:"enabled"`
	FontPath   string  `yaml:"font_path" toml:"font_path"`
	FontSize   float64 `yaml:"font_size" toml:"font_size"`
	Color      string  `yaml:"color" toml:"color"`
	Background string  `yaml:"background" toml:"background"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Encoding: string(pipeline.EncodingBGR8),
		Fallback: true,

		Codec: "h264",
		FPS:   30.0,
		Remux: string(orchestrator.RemuxAuto),

		Overlay: OverlayConfig{
			FontSize:   16,
			Color:      "#ffffff",
			Background: "#000000a0",
		},

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML (.yaml, .yml) or TOML
// (.toml) file. Fields missing from the file keep their defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}

	return cfg, nil
}

// ParseColor parses a hex color string (#rrggbb or #rrggbbaa) to
// color.Color. Invalid strings give black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.Black
	}

	channel := func(i int) uint8 {
		return hexValue(hex[i])<<4 | hexValue(hex[i+1])
	}

	c := color.NRGBA{R: channel(0), G: channel(2), B: channel(4), A: 255}
	if len(hex) == 8 {
		c.A = channel(6)
	}
	return c
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	encoding, err := pipeline.ParseEncoding(c.Encoding)
	if err != nil {
		return orchestrator.Config{}, err
	}
	remux, err := orchestrator.ParseRemuxMode(c.Remux)
	if err != nil {
		return orchestrator.Config{}, err
	}

	return orchestrator.Config{
		InputPath:  c.Input,
		Topic:      c.Topic,
		OutputPath: c.Output,

		Encoding: encoding,
		Fallback: c.Fallback,

		FPS:     c.FPS,
		Quality: c.Quality,
		Bitrate: c.Bitrate,

		OverlayTimestamp: c.Overlay.Enabled,
		Remux:            remux,
	}, nil
}
