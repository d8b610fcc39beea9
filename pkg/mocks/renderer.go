package mocks

import (
	"image"
	"image/color"

	"github.com/user/mcapvideo/pkg/ports"
)

// Renderer records what was asked of it. Decoding yields a blank 100x100
// frame and encoding yields the format's extension as bytes.
type Renderer struct {
	// Canvas is returned by CreateCanvas when set.
	Canvas *Canvas

	EncodeErr error

	Encoded     []ports.ImageFormat
	ResizeCalls int
}

func (m *Renderer) CreateCanvas(img image.Image) ports.Canvas {
	if m.Canvas != nil {
		m.Canvas.img = img
		return m.Canvas
	}
	return &Canvas{img: img}
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	m.Encoded = append(m.Encoded, format)
	if m.EncodeErr != nil {
		return nil, m.EncodeErr
	}
	return []byte(format.Extension()), nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	m.ResizeCalls++
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas records drawn boxes and text. Text measures 7x13 pixels per rune.
type Canvas struct {
	img image.Image

	Boxes []image.Rectangle
	Texts []string
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	return float64(len([]rune(text))) * 7, 13
}

func (m *Canvas) FillBox(box image.Rectangle, radius int, c color.Color) {
	m.Boxes = append(m.Boxes, box)
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, text)
}

func (m *Canvas) ToImage() image.Image {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
