package rosmsg

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// decodeJSON decodes Foxglove image schemas recorded with JSON message
// encoding. Binary data is base64 encoded.
func decodeJSON(schema string, data []byte) (Message, error) {
	switch schema {
	case SchemaJSONRawImage, SchemaJSONCompressedImage, SchemaJSONCompressedVideo:
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnsupportedSchema, schema)
	}
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("invalid JSON payload for %s", schema)
	}
	doc := gjson.ParseBytes(data)

	stamp := Time{
		Sec:     int32(doc.Get("timestamp.sec").Int()),
		Nanosec: uint32(doc.Get("timestamp.nsec").Uint()),
	}
	payload, err := jsonBytes(doc.Get("data"))
	if err != nil {
		return Message{}, err
	}

	switch schema {
	case SchemaJSONRawImage:
		return Message{Kind: KindRaw, Raw: &Image{
			Stamp:    stamp,
			FrameID:  doc.Get("frame_id").String(),
			Width:    uint32(doc.Get("width").Uint()),
			Height:   uint32(doc.Get("height").Uint()),
			Encoding: doc.Get("encoding").String(),
			Step:     uint32(doc.Get("step").Uint()),
			Data:     payload,
		}}, nil
	default:
		return Message{Kind: KindCompressed, Compressed: &CompressedImage{
			Stamp:   stamp,
			FrameID: doc.Get("frame_id").String(),
			Format:  doc.Get("format").String(),
			Data:    payload,
		}}, nil
	}
}

// jsonBytes accepts either a base64 string or an array of byte values.
func jsonBytes(v gjson.Result) ([]byte, error) {
	if !v.Exists() {
		return nil, fmt.Errorf("%w: missing data field", ErrTruncated)
	}
	if v.IsArray() {
		arr := v.Array()
		out := make([]byte, len(arr))
		for i, b := range arr {
			out[i] = byte(b.Uint())
		}
		return out, nil
	}
	out, err := base64.StdEncoding.DecodeString(v.String())
	if err != nil {
		return nil, fmt.Errorf("decode base64 data: %w", err)
	}
	return out, nil
}
