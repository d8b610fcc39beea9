package ports

import (
	"image"
	"image/color"
	"strings"
	"unicode"
)

// Renderer decodes, encodes and scales frames and hands out canvases for
// drawing overlays.
type Renderer interface {
	// CreateCanvas returns a canvas holding a copy of img; img itself is
	// never modified.
	CreateCanvas(img image.Image) Canvas

	// DecodeImage decodes a compressed payload. format is a hint;
	// FormatAuto sniffs the data.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes img. quality only applies to JPEG.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales img to width x height. Gray images stay gray.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas is a drawable copy of a frame.
type Canvas interface {
	MeasureText(text string, style TextStyle) (width, height float64)

	// FillBox fills box with c, rounding its corners by radius pixels.
	FillBox(box image.Rectangle, radius int, c color.Color)

	// DrawText draws text starting at x, vertically centered on y.
	DrawText(text string, x, y int, style TextStyle)

	ToImage() image.Image
}

// TextStyle selects the font and color of overlay text. An empty FontPath
// uses the built-in Go Regular face.
type TextStyle struct {
	FontPath string
	FontSize float64
	Color    color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatAuto ImageFormat = iota
	FormatJPEG
	FormatPNG
	FormatBMP
	FormatTIFF
	FormatWebP
)

// ParseImageFormat maps a compressed image format string such as
// "jpeg", "png" or "rgb8; jpeg compressed bgr8" to an ImageFormat.
func ParseImageFormat(s string) ImageFormat {
	switch {
	case containsWord(s, "jpeg"), containsWord(s, "jpg"):
		return FormatJPEG
	case containsWord(s, "png"):
		return FormatPNG
	case containsWord(s, "bmp"):
		return FormatBMP
	case containsWord(s, "tiff"), containsWord(s, "tif"):
		return FormatTIFF
	case containsWord(s, "webp"):
		return FormatWebP
	default:
		return FormatAuto
	}
}

// Extension returns the file extension for the format, without a dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatWebP:
		return "webp"
	default:
		return "bin"
	}
}

// containsWord reports whether word occurs in s as a separate token.
func containsWord(s, word string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range tokens {
		if t == word {
			return true
		}
	}
	return false
}
