// Package summarizer provides summary generation for conversion results.
package summarizer

import "time"

// Summary contains all data collected during a conversion run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id,omitempty"`

	// Input log file
	Source SourceInfo `json:"source"`

	// What was read from the topic
	Messages MessageInfo `json:"messages"`

	// Conversion settings
	Settings Settings `json:"settings"`

	// Video output details
	Video VideoInfo `json:"video"`
}

// SourceInfo identifies the log file and topic that were read.
type SourceInfo struct {
	Path  string `json:"path"`
	Topic string `json:"topic"`
}

// MessageInfo contains record counts and timing of the topic.
type MessageInfo struct {
	Seen     int `json:"seen"`
	Skipped  int `json:"skipped"`
	FellBack int `json:"fell_back"`

	FirstLogTimeNs uint64  `json:"first_log_time_ns"`
	LastLogTimeNs  uint64  `json:"last_log_time_ns"`
	DurationSec    float64 `json:"duration_sec"`
	DetectedFPS    float64 `json:"detected_fps"` // 0 when undefined
}

// Settings contains the conversion configuration.
type Settings struct {
	Encoding string  `json:"encoding"`
	Codec    string  `json:"codec"` // Requested codec
	FPS      float64 `json:"fps"`
	Quality  int     `json:"quality"` // CRF, 0 = codec default
	Bitrate  int     `json:"bitrate"` // kbps, 0 = quality based
	Remux    string  `json:"remux"`
	Overlay  bool    `json:"overlay"`
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`  // "encode" or "remux"
	Codec      string `json:"codec"` // Codec found in the written file
	FrameCount int    `json:"frame_count"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FileSize   int64  `json:"file_size"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID sets the run identifier.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithSource sets the input file and topic.
func (b *Builder) WithSource(path, topic string) *Builder {
	b.summary.Source = SourceInfo{
		Path:  path,
		Topic: topic,
	}
	return b
}

// WithMessages sets record counts and timing.
func (b *Builder) WithMessages(messages MessageInfo) *Builder {
	b.summary.Messages = messages
	return b
}

// WithSettings sets conversion settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
