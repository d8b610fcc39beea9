// Package rosmsg decodes image messages recorded in MCAP files.
//
// ROS 2 messages are CDR encoded; Foxglove schemas may also be JSON encoded.
// Only the fields needed to reconstruct a frame are decoded.
package rosmsg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Schema names understood by Decode.
const (
	SchemaROSImage              = "sensor_msgs/msg/Image"
	SchemaROSCompressedImage    = "sensor_msgs/msg/CompressedImage"
	SchemaFoxgloveRawImage      = "foxglove_msgs/msg/RawImage"
	SchemaFoxgloveCompressed    = "foxglove_msgs/msg/CompressedImage"
	SchemaFoxgloveCompressedVid = "foxglove_msgs/msg/CompressedVideo"
	SchemaJSONRawImage          = "foxglove.RawImage"
	SchemaJSONCompressedImage   = "foxglove.CompressedImage"
	SchemaJSONCompressedVideo   = "foxglove.CompressedVideo"
	MessageEncodingCDR          = "cdr"
	MessageEncodingJSON         = "json"
	SchemaEncodingROS2Msg       = "ros2msg"
	SchemaEncodingJSONSchema    = "jsonschema"
)

var (
	// ErrUnsupportedSchema is returned for schemas that carry no image.
	ErrUnsupportedSchema = errors.New("rosmsg: unsupported schema")

	// ErrTruncated is returned when a payload ends before all fields are read.
	ErrTruncated = errors.New("rosmsg: truncated message")
)

// Time is a ROS timestamp.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// Time converts the stamp to a time.Time in UTC.
func (t Time) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nanosec)).UTC()
}

// Image is an uncompressed image.
type Image struct {
	Stamp       Time
	FrameID     string
	Height      uint32
	Width       uint32
	Encoding    string
	IsBigEndian bool
	Step        uint32 // Full row length in bytes
	Data        []byte
}

// CompressedImage is a compressed image or an encoded video access unit.
type CompressedImage struct {
	Stamp   Time
	FrameID string
	Format  string // e.g. "jpeg", "png", "h264"
	Data    []byte
}

// IsH264 reports whether the payload is an H.264 access unit.
func (c CompressedImage) IsH264() bool {
	f := strings.ToLower(c.Format)
	return strings.Contains(f, "h264") || strings.Contains(f, "avc")
}

// Kind distinguishes decoded message types.
type Kind int

const (
	KindRaw Kind = iota
	KindCompressed
)

// Message is a decoded image message.
type Message struct {
	Kind       Kind
	Raw        *Image
	Compressed *CompressedImage
}

// IsImageSchema reports whether Decode understands the schema.
func IsImageSchema(schemaName string) bool {
	switch normalizeSchema(schemaName) {
	case SchemaROSImage, SchemaROSCompressedImage, SchemaFoxgloveRawImage,
		SchemaFoxgloveCompressed, SchemaFoxgloveCompressedVid,
		SchemaJSONRawImage, SchemaJSONCompressedImage, SchemaJSONCompressedVideo:
		return true
	}
	return false
}

// Decode decodes a message payload according to its schema name and
// message encoding.
func Decode(schemaName, messageEncoding string, data []byte) (Message, error) {
	schema := normalizeSchema(schemaName)
	switch strings.ToLower(messageEncoding) {
	case MessageEncodingCDR:
		return decodeCDR(schema, data)
	case MessageEncodingJSON:
		return decodeJSON(schema, data)
	default:
		return Message{}, fmt.Errorf("%w: message encoding %q", ErrUnsupportedSchema, messageEncoding)
	}
}

// normalizeSchema maps ROS 1 style names ("sensor_msgs/Image") to their
// ROS 2 equivalents.
func normalizeSchema(name string) string {
	parts := strings.Split(name, "/")
	if len(parts) == 2 && strings.HasSuffix(parts[0], "_msgs") {
		return parts[0] + "/msg/" + parts[1]
	}
	return name
}

func decodeCDR(schema string, data []byte) (Message, error) {
	switch schema {
	case SchemaROSImage:
		img, err := decodeROSImage(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindRaw, Raw: img}, nil
	case SchemaROSCompressedImage:
		img, err := decodeROSCompressed(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindCompressed, Compressed: img}, nil
	case SchemaFoxgloveRawImage:
		img, err := decodeFoxgloveRaw(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindRaw, Raw: img}, nil
	case SchemaFoxgloveCompressed, SchemaFoxgloveCompressedVid:
		img, err := decodeFoxgloveCompressed(data)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindCompressed, Compressed: img}, nil
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnsupportedSchema, schema)
	}
}

// sensor_msgs/msg/Image: header, height, width, encoding, is_bigendian, step, data.
func decodeROSImage(data []byte) (*Image, error) {
	r, err := newCDRReader(data)
	if err != nil {
		return nil, err
	}
	img := &Image{}
	if img.Stamp, err = r.time(); err != nil {
		return nil, fmt.Errorf("header stamp: %w", err)
	}
	if img.FrameID, err = r.string(); err != nil {
		return nil, fmt.Errorf("header frame_id: %w", err)
	}
	if img.Height, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if img.Width, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if img.Encoding, err = r.string(); err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	bigEndian, err := r.uint8()
	if err != nil {
		return nil, fmt.Errorf("is_bigendian: %w", err)
	}
	img.IsBigEndian = bigEndian != 0
	if img.Step, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	if img.Data, err = r.bytes(); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return img, nil
}

// sensor_msgs/msg/CompressedImage: header, format, data.
func decodeROSCompressed(data []byte) (*CompressedImage, error) {
	r, err := newCDRReader(data)
	if err != nil {
		return nil, err
	}
	img := &CompressedImage{}
	if img.Stamp, err = r.time(); err != nil {
		return nil, fmt.Errorf("header stamp: %w", err)
	}
	if img.FrameID, err = r.string(); err != nil {
		return nil, fmt.Errorf("header frame_id: %w", err)
	}
	if img.Format, err = r.string(); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	if img.Data, err = r.bytes(); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return img, nil
}

// foxglove_msgs/msg/RawImage: timestamp, frame_id, width, height, encoding, step, data.
func decodeFoxgloveRaw(data []byte) (*Image, error) {
	r, err := newCDRReader(data)
	if err != nil {
		return nil, err
	}
	img := &Image{}
	if img.Stamp, err = r.time(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	if img.FrameID, err = r.string(); err != nil {
		return nil, fmt.Errorf("frame_id: %w", err)
	}
	if img.Width, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if img.Height, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if img.Encoding, err = r.string(); err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	if img.Step, err = r.uint32(); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	if img.Data, err = r.bytes(); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return img, nil
}

// foxglove_msgs/msg/CompressedImage and CompressedVideo: timestamp, frame_id, data, format.
func decodeFoxgloveCompressed(data []byte) (*CompressedImage, error) {
	r, err := newCDRReader(data)
	if err != nil {
		return nil, err
	}
	img := &CompressedImage{}
	if img.Stamp, err = r.time(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	if img.FrameID, err = r.string(); err != nil {
		return nil, fmt.Errorf("frame_id: %w", err)
	}
	if img.Data, err = r.bytes(); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if img.Format, err = r.string(); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return img, nil
}

// MarshalImage encodes img as a little-endian CDR sensor_msgs/msg/Image.
func MarshalImage(img Image) []byte {
	w := newCDRWriter()
	w.time(img.Stamp)
	w.string(img.FrameID)
	w.uint32(img.Height)
	w.uint32(img.Width)
	w.string(img.Encoding)
	if img.IsBigEndian {
		w.uint8(1)
	} else {
		w.uint8(0)
	}
	w.uint32(img.Step)
	w.bytes(img.Data)
	return w.buf
}

// MarshalCompressedImage encodes img as a little-endian CDR
// sensor_msgs/msg/CompressedImage.
func MarshalCompressedImage(img CompressedImage) []byte {
	w := newCDRWriter()
	w.time(img.Stamp)
	w.string(img.FrameID)
	w.string(img.Format)
	w.bytes(img.Data)
	return w.buf
}
