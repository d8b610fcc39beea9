// Package ggrenderer implements ports.Renderer with gg for drawing and
// golang.org/x/image for codecs and scaling.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/user/mcapvideo/pkg/ports"
)

const defaultFontSize = 14

// Renderer caches font faces by path and size, so a face is parsed once per
// run rather than once per frame.
type Renderer struct {
	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	path string
	size float64
}

func New() *Renderer {
	return &Renderer{faces: make(map[faceKey]font.Face)}
}

func (r *Renderer) CreateCanvas(img image.Image) ports.Canvas {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	return &Canvas{dc: dc, renderer: r}
}

func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	case ports.FormatBMP:
		return bmp.Decode(reader)
	case ports.FormatTIFF:
		return tiff.Decode(reader)
	case ports.FormatWebP:
		return webp.Decode(reader)
	default:
		// The x/image decoders register themselves with image.Decode.
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage supports every format DecodeImage does except WebP, which
// x/image can only decode.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case ports.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case ports.FormatPNG:
		err = png.Encode(&buf, img)
	case ports.FormatBMP:
		err = bmp.Encode(&buf, img)
	case ports.FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format.Extension())
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format.Extension(), err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	case *image.Gray16:
		dst = image.NewGray16(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
	return dst
}

// face returns the face for style. A font file that cannot be read or
// parsed falls back to Go Regular at the same size.
func (r *Renderer) face(style ports.TextStyle) font.Face {
	size := style.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	key := faceKey{path: style.FontPath, size: size}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}

	f, err := loadFace(style.FontPath, size)
	if err != nil && style.FontPath != "" {
		f, err = loadFace("", size)
	}
	if err != nil {
		f = basicfont.Face7x13
	}
	r.faces[key] = f
	return f
}

func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: size}), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas on a gg.Context.
type Canvas struct {
	dc       *gg.Context
	renderer *Renderer
}

func (c *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	c.dc.SetFontFace(c.renderer.face(style))
	return c.dc.MeasureString(text)
}

func (c *Canvas) FillBox(box image.Rectangle, radius int, col color.Color) {
	c.dc.SetColor(col)
	x, y := float64(box.Min.X), float64(box.Min.Y)
	w, h := float64(box.Dx()), float64(box.Dy())
	if radius > 0 {
		c.dc.DrawRoundedRectangle(x, y, w, h, float64(radius))
	} else {
		c.dc.DrawRectangle(x, y, w, h)
	}
	c.dc.Fill()
}

func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.dc.SetFontFace(c.renderer.face(style))
	c.dc.SetColor(style.Color)
	c.dc.DrawStringAnchored(text, float64(x), float64(y), 0, 0.5)
}

func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
