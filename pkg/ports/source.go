package ports

import "context"

// Record is a single message read from a log container.
type Record struct {
	Topic           string
	SchemaName      string // e.g. "sensor_msgs/msg/Image"
	SchemaEncoding  string // e.g. "ros2msg"
	MessageEncoding string // e.g. "cdr"
	Sequence        uint32
	LogTimeNs       uint64
	PublishTimeNs   uint64
	Data            []byte
}

// ChannelInfo describes one channel of a log container.
type ChannelInfo struct {
	ID              uint16
	Topic           string
	SchemaName      string
	MessageEncoding string
	MessageCount    uint64
}

// MessageSource abstracts reading records of a topic from a log container.
type MessageSource interface {
	// Open prepares the container at path for reading records of topic.
	Open(ctx context.Context, path, topic string) error

	// Next returns the next record in log time order.
	// It returns io.EOF when no records remain.
	Next(ctx context.Context) (Record, error)

	// Channels lists the channels of the opened container.
	Channels() ([]ChannelInfo, error)

	// Close releases the underlying file.
	Close() error
}
