// Package mcapfixture writes small MCAP files for tests.
package mcapfixture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/foxglove/mcap/go/mcap"

	"github.com/user/mcapvideo/pkg/rosmsg"
)

// Message is one message to write on a topic.
type Message struct {
	Topic     string
	LogTimeNs uint64
	Data      []byte
}

// Channel declares a topic and its schema.
type Channel struct {
	Topic           string
	SchemaName      string
	MessageEncoding string // defaults to "cdr"
}

// Options configures how the file is written.
type Options struct {
	// Unindexed writes messages without chunks, so the file has no
	// chunk indexes and must be read linearly.
	Unindexed bool
}

// Build encodes channels and messages into an MCAP file in memory.
// Messages are written in the given order.
func Build(channels []Channel, messages []Message, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := mcap.NewWriter(&buf, &mcap.WriterOptions{
		Chunked:   !opts.Unindexed,
		ChunkSize: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	if err := w.WriteHeader(&mcap.Header{Profile: "ros2"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	ids := make(map[string]uint16, len(channels))
	for i, ch := range channels {
		id := uint16(i + 1)
		encoding := ch.MessageEncoding
		if encoding == "" {
			encoding = rosmsg.MessageEncodingCDR
		}
		schemaEncoding := rosmsg.SchemaEncodingROS2Msg
		if encoding == rosmsg.MessageEncodingJSON {
			schemaEncoding = rosmsg.SchemaEncodingJSONSchema
		}
		if err := w.WriteSchema(&mcap.Schema{
			ID:       id,
			Name:     ch.SchemaName,
			Encoding: schemaEncoding,
			Data:     []byte{},
		}); err != nil {
			return nil, fmt.Errorf("write schema: %w", err)
		}
		if err := w.WriteChannel(&mcap.Channel{
			ID:              id,
			SchemaID:        id,
			Topic:           ch.Topic,
			MessageEncoding: encoding,
			Metadata:        map[string]string{},
		}); err != nil {
			return nil, fmt.Errorf("write channel: %w", err)
		}
		ids[ch.Topic] = id
	}

	seq := make(map[uint16]uint32)
	for _, m := range messages {
		id, ok := ids[m.Topic]
		if !ok {
			return nil, fmt.Errorf("message on undeclared topic %q", m.Topic)
		}
		seq[id]++
		if err := w.WriteMessage(&mcap.Message{
			ChannelID:   id,
			Sequence:    seq[id],
			LogTime:     m.LogTimeNs,
			PublishTime: m.LogTimeNs,
			Data:        m.Data,
		}); err != nil {
			return nil, fmt.Errorf("write message: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile builds an MCAP file in a temporary directory and returns its path.
func WriteFile(t testing.TB, channels []Channel, messages []Message, opts Options) string {
	t.Helper()

	data, err := Build(channels, messages, opts)
	if err != nil {
		t.Fatalf("build mcap fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.mcap")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write mcap fixture: %v", err)
	}
	return path
}

// Mono8 returns a CDR sensor_msgs/msg/Image payload of a width x height
// grey image filled with value.
func Mono8(width, height int, value byte) []byte {
	data := bytes.Repeat([]byte{value}, width*height)
	return rosmsg.MarshalImage(rosmsg.Image{
		Height:   uint32(height),
		Width:    uint32(width),
		Encoding: "mono8",
		Step:     uint32(width),
		Data:     data,
	})
}

// RGB8 returns a CDR sensor_msgs/msg/Image payload of a solid color image.
func RGB8(width, height int, r, g, b byte) []byte {
	data := make([]byte, 0, width*height*3)
	for i := 0; i < width*height; i++ {
		data = append(data, r, g, b)
	}
	return rosmsg.MarshalImage(rosmsg.Image{
		Height:   uint32(height),
		Width:    uint32(width),
		Encoding: "rgb8",
		Step:     uint32(width * 3),
		Data:     data,
	})
}

// Compressed returns a CDR sensor_msgs/msg/CompressedImage payload.
func Compressed(format string, data []byte) []byte {
	return rosmsg.MarshalCompressedImage(rosmsg.CompressedImage{
		Format: format,
		Data:   data,
	})
}
