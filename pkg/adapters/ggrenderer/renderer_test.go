package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/mcapvideo/pkg/ports"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(solid(100, 60, color.RGBA{B: 255, A: 255}))
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	img := canvas.ToImage()
	bounds := img.Bounds()

	if bounds.Dx() != 100 || bounds.Dy() != 60 {
		t.Errorf("expected 100x60, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	// The source pixels are copied onto the canvas
	_, _, b, _ := img.At(50, 30).RGBA()
	if b != 0xFFFF {
		t.Errorf("expected blue pixel from source image, got b=%d", b)
	}
}

func TestRenderer_EncodeDecodeJPEG(t *testing.T) {
	r := New()

	img := solid(50, 50, color.RGBA{R: 255, A: 255})

	// Encode
	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}

	// Decode
	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodeFormats(t *testing.T) {
	r := New()
	img := solid(30, 20, color.RGBA{G: 255, A: 255})

	formats := []ports.ImageFormat{ports.FormatPNG, ports.FormatBMP, ports.FormatTIFF}
	for _, format := range formats {
		t.Run(format.Extension(), func(t *testing.T) {
			data, err := r.EncodeImage(img, format, 0)
			if err != nil {
				t.Fatalf("EncodeImage failed: %v", err)
			}

			decoded, err := r.DecodeImage(data, format)
			if err != nil {
				t.Fatalf("DecodeImage failed: %v", err)
			}
			bounds := decoded.Bounds()
			if bounds.Dx() != 30 || bounds.Dy() != 20 {
				t.Errorf("expected 30x20, got %dx%d", bounds.Dx(), bounds.Dy())
			}

			// Auto-detection finds the same format
			if _, err := r.DecodeImage(data, ports.FormatAuto); err != nil {
				t.Errorf("auto-detect failed: %v", err)
			}
		})
	}
}

func TestRenderer_EncodeWebPUnsupported(t *testing.T) {
	r := New()

	if _, err := r.EncodeImage(solid(4, 4, color.RGBA{A: 255}), ports.FormatWebP, 0); err == nil {
		t.Error("expected error encoding WebP")
	}
}

func TestRenderer_DecodeInvalid(t *testing.T) {
	r := New()

	if _, err := r.DecodeImage([]byte("not an image"), ports.FormatAuto); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	resized := r.ResizeImage(image.NewRGBA(image.Rect(0, 0, 100, 100)), 50, 40)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 40 {
		t.Errorf("expected 50x40, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_ResizeImageKeepsGray(t *testing.T) {
	r := New()

	resized := r.ResizeImage(image.NewGray(image.Rect(0, 0, 10, 10)), 20, 20)
	if _, ok := resized.(*image.Gray); !ok {
		t.Errorf("expected *image.Gray, got %T", resized)
	}
}

func TestCanvas_FillBox(t *testing.T) {
	r := New()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	tests := []struct {
		name   string
		radius int
	}{
		{"square", 0},
		{"rounded", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := r.CreateCanvas(solid(100, 100, white))
			canvas.FillBox(image.Rect(10, 10, 50, 40), tt.radius, color.RGBA{R: 255, A: 255})
			img := canvas.ToImage()

			if _, g, _, _ := img.At(30, 25).RGBA(); g != 0 {
				t.Error("expected red pixel inside the box")
			}
			if _, g, _, _ := img.At(70, 70).RGBA(); g == 0 {
				t.Error("pixels outside the box should be untouched")
			}
			corner := tt.radius == 0
			if _, g, _, _ := img.At(10, 10).RGBA(); (g == 0) != corner {
				t.Errorf("corner filled = %v, want %v", g == 0, corner)
			}
		})
	}
}

func TestCanvas_TextSizeFollowsFontSize(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(solid(400, 80, color.RGBA{A: 255}))

	small, smallH := canvas.MeasureText("2023-11-14 22:13:20.250", ports.TextStyle{FontSize: 10})
	large, largeH := canvas.MeasureText("2023-11-14 22:13:20.250", ports.TextStyle{FontSize: 28})
	if small <= 0 || smallH <= 0 {
		t.Fatalf("expected positive text size, got %.1fx%.1f", small, smallH)
	}
	if large <= small || largeH <= smallH {
		t.Errorf("larger font should measure larger: %.1fx%.1f vs %.1fx%.1f", large, largeH, small, smallH)
	}

	canvas.DrawText("12:00", 10, 40, ports.TextStyle{FontSize: 28, Color: color.White})
	img := canvas.ToImage()
	lit := false
	for y := 20; y < 70 && !lit; y++ {
		for x := 10; x < 100; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected text pixels around y=40")
	}
}

func TestRenderer_MissingFontFallsBack(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(solid(100, 40, color.RGBA{A: 255}))

	style := ports.TextStyle{FontPath: "/nonexistent/font.ttf", FontSize: 14}
	w, _ := canvas.MeasureText("abc", style)
	want, _ := canvas.MeasureText("abc", ports.TextStyle{FontSize: 14})
	if w != want {
		t.Errorf("missing font should fall back to Go Regular: got width %.1f, want %.1f", w, want)
	}
	if len(r.faces) != 2 {
		t.Errorf("expected 2 cached faces, got %d", len(r.faces))
	}
}
