package mocks

import (
	"image"

	"github.com/user/mcapvideo/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image, timestampMs int) error
	EndFunc         func() ([]byte, error)

	// Recorded calls for verification
	BeginCalled      bool
	BeginWidth       int
	BeginHeight      int
	BeginFPS         float64
	BeginOptions     ports.EncoderOptions
	EncodeFrameCalls []EncodeFrameCall
	EndCalled        bool
	CloseCalls       int
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	TimestampMs int
	Bounds      image.Rectangle
	Image       image.Image
}

func (m *VideoEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	m.BeginCalled = true
	m.BeginWidth = width
	m.BeginHeight = height
	m.BeginFPS = fps
	m.BeginOptions = opts
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{
		TimestampMs: timestampMs,
		Bounds:      img.Bounds(),
		Image:       img,
	})
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img, timestampMs)
	}
	return nil
}

func (m *VideoEncoder) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	// Return minimal MP4 ftyp box header
	return []byte{0x00, 0x00, 0x00, 0x08, 'f', 't', 'y', 'p'}, nil
}

func (m *VideoEncoder) Close() {
	m.CloseCalls++
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// StreamMuxer is a mock implementation of ports.StreamMuxer.
type StreamMuxer struct {
	AddAccessUnitFunc func(data []byte, timestampMs int) error
	EndFunc           func() ([]byte, error)

	Timestamps []int
	EndCalled  bool
}

func (m *StreamMuxer) AddAccessUnit(data []byte, timestampMs int) error {
	if m.AddAccessUnitFunc != nil {
		if err := m.AddAccessUnitFunc(data, timestampMs); err != nil {
			return err
		}
	}
	m.Timestamps = append(m.Timestamps, timestampMs)
	return nil
}

func (m *StreamMuxer) SampleCount() int {
	return len(m.Timestamps)
}

func (m *StreamMuxer) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return []byte{0x00, 0x00, 0x00, 0x08, 'f', 't', 'y', 'p'}, nil
}

var _ ports.StreamMuxer = (*StreamMuxer)(nil)
