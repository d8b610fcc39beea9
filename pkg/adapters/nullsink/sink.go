// Package nullsink is the debug sink used when --debug is off.
package nullsink

import (
	"image"

	"github.com/user/mcapvideo/pkg/ports"
)

// Sink reports itself disabled, so the orchestrator skips building debug
// artifacts. Any artifact handed to it anyway is dropped.
type Sink struct{}

func New() *Sink { return &Sink{} }

func (*Sink) Enabled() bool { return false }

func (*Sink) SaveRunJSON([]byte) error { return nil }

func (*Sink) SaveRawPayload(int, []byte, string) error { return nil }

func (*Sink) SaveFrame(int, image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
