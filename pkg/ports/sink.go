package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRunJSON saves the conversion result as JSON.
	SaveRunJSON(data []byte) error

	// SaveRawPayload saves the undecoded payload of a record.
	// ext is the file extension without the leading dot.
	SaveRawPayload(index int, data []byte, ext string) error

	// SaveFrame saves a normalized frame as it was handed to the encoder.
	SaveFrame(index int, img image.Image) error
}
