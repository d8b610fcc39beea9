package mocks

import (
	"image"
	"sync"

	"github.com/user/mcapvideo/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	RunJSON     []byte
	RawPayloads map[int][]byte
	RawExts     map[int]string
	Frames      map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:     enabled,
		RawPayloads: make(map[int][]byte),
		RawExts:     make(map[int]string),
		Frames:      make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveRunJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunJSON = data
	return nil
}

func (m *DebugSink) SaveRawPayload(index int, data []byte, ext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RawPayloads[index] = data
	m.RawExts[index] = ext
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                           { return false }
func (m *NullSink) SaveRunJSON(data []byte) error                           { return nil }
func (m *NullSink) SaveRawPayload(index int, data []byte, ext string) error { return nil }
func (m *NullSink) SaveFrame(index int, img image.Image) error              { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
