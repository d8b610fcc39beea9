package mocks

import (
	"context"
	"io"

	"github.com/user/mcapvideo/pkg/ports"
)

// MessageSource is a mock implementation of ports.MessageSource.
// It yields Records in order, then ErrAfter (or io.EOF when nil).
type MessageSource struct {
	Records  []ports.Record
	Channel  []ports.ChannelInfo
	OpenErr  error
	ErrAfter error

	OpenedPath  string
	OpenedTopic string
	Closed      bool

	next int
}

func (m *MessageSource) Open(ctx context.Context, path, topic string) error {
	m.OpenedPath = path
	m.OpenedTopic = topic
	return m.OpenErr
}

func (m *MessageSource) Next(ctx context.Context) (ports.Record, error) {
	if err := ctx.Err(); err != nil {
		return ports.Record{}, err
	}
	if m.next >= len(m.Records) {
		if m.ErrAfter != nil {
			return ports.Record{}, m.ErrAfter
		}
		return ports.Record{}, io.EOF
	}
	rec := m.Records[m.next]
	m.next++
	return rec, nil
}

func (m *MessageSource) Channels() ([]ports.ChannelInfo, error) {
	return m.Channel, nil
}

func (m *MessageSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.MessageSource = (*MessageSource)(nil)
