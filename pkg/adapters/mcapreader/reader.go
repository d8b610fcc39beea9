// Package mcapreader provides a MessageSource backed by MCAP files.
package mcapreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/foxglove/mcap/go/mcap"

	"github.com/user/mcapvideo/pkg/ports"
)

var (
	// ErrInputNotFound is returned when the MCAP file does not exist.
	ErrInputNotFound = errors.New("mcapreader: input file not found")

	// ErrNotOpen is returned when reading before Open.
	ErrNotOpen = errors.New("mcapreader: source not open")
)

// Source implements ports.MessageSource using the MCAP reference reader.
type Source struct {
	logger ports.Logger

	file    *os.File
	reader  *mcap.Reader
	info    *mcap.Info
	iter    mcap.MessageIterator
	indexed bool
	topic   string
}

// New creates a new Source.
func New(logger ports.Logger) *Source {
	return &Source{logger: logger.WithComponent("mcap")}
}

// Open opens path and positions the source at the first record of topic.
// An empty topic selects every channel.
func (s *Source) Open(ctx context.Context, path, topic string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}

	reader, err := mcap.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("read mcap header: %w", err)
	}

	s.file = f
	s.reader = reader
	s.topic = topic

	// The summary section is optional; without chunk indexes the file can
	// only be read front to back.
	if info, err := reader.Info(); err == nil {
		s.info = info
		s.indexed = len(info.ChunkIndexes) > 0
	} else {
		s.logger.Debug("No summary section: %s", err)
	}

	if err := s.startIterator(); err != nil {
		s.Close()
		return err
	}
	return nil
}

func (s *Source) startIterator() error {
	var opts []mcap.ReadOpt
	if s.topic != "" {
		opts = append(opts, mcap.WithTopics([]string{s.topic}))
	}

	if s.indexed {
		opts = append(opts, mcap.UsingIndex(true), mcap.InOrder(mcap.LogTimeOrder))
		it, err := s.reader.Messages(opts...)
		if err != nil {
			return fmt.Errorf("create indexed iterator: %w", err)
		}
		s.iter = it
		return nil
	}

	s.logger.Warn("MCAP file has no index, reading messages in file order")

	// Reading linearly requires a fresh lexer at the start of the file.
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	reader, err := mcap.NewReader(s.file)
	if err != nil {
		return fmt.Errorf("read mcap header: %w", err)
	}
	s.reader = reader

	opts = append(opts, mcap.UsingIndex(false))
	it, err := reader.Messages(opts...)
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	s.iter = it
	return nil
}

// Next returns the next record. It returns io.EOF when no records remain.
func (s *Source) Next(ctx context.Context) (ports.Record, error) {
	if s.iter == nil {
		return ports.Record{}, ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ports.Record{}, ctx.Err()
	default:
	}

	schema, channel, msg, err := s.iter.Next(nil)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ports.Record{}, io.EOF
		}
		return ports.Record{}, fmt.Errorf("read message: %w", err)
	}

	rec := ports.Record{
		Topic:           channel.Topic,
		MessageEncoding: channel.MessageEncoding,
		Sequence:        msg.Sequence,
		LogTimeNs:       msg.LogTime,
		PublishTimeNs:   msg.PublishTime,
		Data:            msg.Data,
	}
	if schema != nil {
		rec.SchemaName = schema.Name
		rec.SchemaEncoding = schema.Encoding
	}
	return rec, nil
}

// Indexed reports whether records are delivered in log time order.
func (s *Source) Indexed() bool {
	return s.indexed
}

// Channels lists the channels of the opened file with their message counts.
// Files without statistics are scanned once to count messages.
func (s *Source) Channels() ([]ports.ChannelInfo, error) {
	if s.reader == nil {
		return nil, ErrNotOpen
	}

	if s.info != nil && s.info.Statistics != nil && len(s.info.Channels) > 0 {
		return channelsFromInfo(s.info), nil
	}
	return s.scanChannels()
}

func channelsFromInfo(info *mcap.Info) []ports.ChannelInfo {
	out := make([]ports.ChannelInfo, 0, len(info.Channels))
	for id, ch := range info.Channels {
		ci := ports.ChannelInfo{
			ID:              id,
			Topic:           ch.Topic,
			MessageEncoding: ch.MessageEncoding,
			MessageCount:    info.Statistics.ChannelMessageCounts[id],
		}
		if schema, ok := info.Schemas[ch.SchemaID]; ok && schema != nil {
			ci.SchemaName = schema.Name
		}
		out = append(out, ci)
	}
	sortChannels(out)
	return out
}

func (s *Source) scanChannels() ([]ports.ChannelInfo, error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	reader, err := mcap.NewReader(s.file)
	if err != nil {
		return nil, fmt.Errorf("read mcap header: %w", err)
	}
	it, err := reader.Messages(mcap.UsingIndex(false))
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}

	byID := make(map[uint16]*ports.ChannelInfo)
	for {
		schema, channel, _, err := it.Next(nil)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan messages: %w", err)
		}
		ci, ok := byID[channel.ID]
		if !ok {
			ci = &ports.ChannelInfo{
				ID:              channel.ID,
				Topic:           channel.Topic,
				MessageEncoding: channel.MessageEncoding,
			}
			if schema != nil {
				ci.SchemaName = schema.Name
			}
			byID[channel.ID] = ci
		}
		ci.MessageCount++
	}

	out := make([]ports.ChannelInfo, 0, len(byID))
	for _, ci := range byID {
		out = append(out, *ci)
	}
	sortChannels(out)

	// The message iterator was consumed; restart it for subsequent reads.
	s.indexed = false
	if err := s.startIterator(); err != nil {
		return nil, err
	}
	return out, nil
}

func sortChannels(channels []ports.ChannelInfo) {
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Topic != channels[j].Topic {
			return channels[i].Topic < channels[j].Topic
		}
		return channels[i].ID < channels[j].ID
	})
}

// Close releases the underlying file.
func (s *Source) Close() error {
	s.iter = nil
	s.reader = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Ensure Source implements ports.MessageSource
var _ ports.MessageSource = (*Source)(nil)
