// Package remux implements the H.264 passthrough stage: encoded access
// units go into an MP4 container without re-encoding.
package remux

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
)

// Stage feeds access units to a StreamMuxer. Units before the first
// keyframe and units the muxer rejects individually are dropped and
// counted; timestamps are log times relative to the first accepted keyframe.
type Stage struct {
	muxer  ports.StreamMuxer
	logger ports.Logger

	started bool
	firstNs uint64
	skipped int
}

// NewStage creates a new remux stage.
func NewStage(muxer ports.StreamMuxer, logger ports.Logger) *Stage {
	return &Stage{
		muxer:  muxer,
		logger: logger.WithComponent("remux"),
	}
}

// Execute appends one access unit and returns the number of samples muxed.
func (s *Stage) Execute(ctx context.Context, au pipeline.AccessUnit) (int, error) {
	if err := ctx.Err(); err != nil {
		return s.muxer.SampleCount(), err
	}

	if !s.started && !au.Keyframe {
		s.skipped++
		s.logger.Debug("Skipping access unit at log time %d before first keyframe", au.LogTimeNs)
		return 0, nil
	}

	firstNs := s.firstNs
	if !s.started {
		firstNs = au.LogTimeNs
	}

	var offsetMs int
	if au.LogTimeNs > firstNs {
		offsetMs = int((au.LogTimeNs - firstNs) / 1_000_000)
	}

	if err := s.muxer.AddAccessUnit(au.Data, offsetMs); err != nil {
		if errors.Is(err, ports.ErrNoKeyframe) || errors.Is(err, ports.ErrEmptyAccessUnit) {
			s.skipped++
			s.logger.Debug("Skipping access unit at log time %d: %v", au.LogTimeNs, err)
			return s.muxer.SampleCount(), nil
		}
		return s.muxer.SampleCount(), fmt.Errorf("mux access unit at log time %d: %w", au.LogTimeNs, err)
	}

	if !s.started {
		s.started = true
		s.firstNs = au.LogTimeNs
	}

	n := s.muxer.SampleCount()
	if n%100 == 0 {
		s.logger.Info("Processed %d frames...", n)
	}
	return n, nil
}

// Skipped returns the number of access units dropped.
func (s *Stage) Skipped() int {
	return s.skipped
}

// Finish builds the container. It returns an empty result when nothing was
// muxed.
func (s *Stage) Finish() (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}
	n := s.muxer.SampleCount()
	if n == 0 {
		return result, nil
	}

	data, err := s.muxer.End()
	if err != nil {
		return result, fmt.Errorf("end muxing: %w", err)
	}

	result.VideoData = data
	result.FrameCount = n
	result.FileSize = int64(len(data))
	if d, ok := s.muxer.(interface{ Dimensions() (int, int) }); ok {
		result.Width, result.Height = d.Dimensions()
	}
	return result, nil
}
