package decode

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/bits"
	"strings"

	"github.com/user/mcapvideo/pkg/rosmsg"
)

var (
	// ErrUnsupportedEncoding is returned for source encodings that cannot
	// be decoded.
	ErrUnsupportedEncoding = errors.New("decode: unsupported encoding")

	// ErrShortData is returned when a payload is smaller than its
	// declared dimensions require.
	ErrShortData = errors.New("decode: data shorter than expected")
)

// layout describes how a raw source encoding is stored.
type layout struct {
	channels      int
	bytesPerValue int
	named         bool // A named color/mono format rather than a generic CV type
}

var layouts = map[string]layout{
	"mono8":       {1, 1, true},
	"gray":        {1, 1, true},
	"grey":        {1, 1, true},
	"8uc1":        {1, 1, false},
	"mono16":      {1, 2, true},
	"16uc1":       {1, 2, false},
	"rgb8":        {3, 1, true},
	"bgr8":        {3, 1, true},
	"8uc3":        {3, 1, false},
	"rgba8":       {4, 1, true},
	"bgra8":       {4, 1, true},
	"8uc4":        {4, 1, false},
	"yuv422":      {2, 1, true},
	"uyvy":        {2, 1, true},
	"yuv422_yuy2": {2, 1, true},
	"yuyv":        {2, 1, true},
	"bayer_rggb8": {1, 1, true},
	"bayer_bggr8": {1, 1, true},
	"bayer_gbrg8": {1, 1, true},
	"bayer_grbg8": {1, 1, true},
}

func lookupLayout(encoding string) (layout, bool) {
	l, ok := layouts[strings.ToLower(encoding)]
	return l, ok
}

// decodeRaw converts an uncompressed image message to its native Go
// representation: *image.Gray, *image.Gray16, *image.RGBA or *image.NRGBA.
func decodeRaw(msg *rosmsg.Image) (image.Image, error) {
	encoding := strings.ToLower(msg.Encoding)
	l, ok := lookupLayout(encoding)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, msg.Encoding)
	}

	if msg.Width == 0 || msg.Height == 0 {
		return nil, fmt.Errorf("empty image %dx%d", msg.Width, msg.Height)
	}
	if packed422(encoding) && msg.Width%2 != 0 {
		return nil, fmt.Errorf("packed 4:2:2 image width %d is odd", msg.Width)
	}

	// Sizes are checked in uint64 before anything is allocated; width and
	// height come straight from the record.
	rowBytes := uint64(msg.Width) * uint64(l.channels*l.bytesPerValue)
	step := uint64(msg.Step)
	if step == 0 {
		step = rowBytes
	}
	if step < rowBytes {
		return nil, fmt.Errorf("step %d is smaller than row size %d for %dx%d %s", step, rowBytes, msg.Width, msg.Height, encoding)
	}
	if !fits(uint64(len(msg.Data)), step, rowBytes, uint64(msg.Height)) {
		return nil, fmt.Errorf("%w: data size %d is less than expected %d for %dx%d %s",
			ErrShortData, len(msg.Data), expectedSize(msg), msg.Width, msg.Height, encoding)
	}

	// Every size below is bounded by len(msg.Data), so int is safe.
	width, height := int(msg.Width), int(msg.Height)
	stride, rowLen := int(step), int(rowBytes)

	row := func(y int) []byte {
		start := y * stride
		return msg.Data[start : start+rowLen]
	}

	switch encoding {
	case "mono8", "gray", "grey", "8uc1":
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[y*img.Stride:], row(y))
		}
		return img, nil

	case "mono16", "16uc1":
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			src := row(y)
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < width; x++ {
				hi, lo := src[2*x+1], src[2*x]
				if msg.IsBigEndian {
					hi, lo = lo, hi
				}
				// image.Gray16 stores big-endian samples.
				dst[2*x] = hi
				dst[2*x+1] = lo
			}
		}
		return img, nil

	case "rgb8", "bgr8", "8uc3":
		bgr := encoding != "rgb8"
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			src := row(y)
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < width; x++ {
				r, g, b := src[3*x], src[3*x+1], src[3*x+2]
				if bgr {
					r, b = b, r
				}
				dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = r, g, b, 0xFF
			}
		}
		return img, nil

	case "rgba8", "bgra8", "8uc4":
		bgr := encoding != "rgba8"
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			src := row(y)
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < width; x++ {
				r, g, b, a := src[4*x], src[4*x+1], src[4*x+2], src[4*x+3]
				if bgr {
					r, b = b, r
				}
				dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = r, g, b, a
			}
		}
		return img, nil

	case "yuv422", "uyvy", "yuv422_yuy2", "yuyv":
		return decodeYUV422(width, height, row, encoding == "yuv422_yuy2" || encoding == "yuyv"), nil

	default:
		return decodeBayer(width, height, row, encoding[len("bayer_"):len("bayer_")+4]), nil
	}
}

// fits reports whether height rows of rowBytes, step bytes apart, fit in
// size bytes.
func fits(size, step, rowBytes, height uint64) bool {
	if rowBytes > size {
		return false
	}
	return height == 1 || step <= (size-rowBytes)/(height-1)
}

// expectedSize is height*width*bytes-per-pixel, saturating at MaxUint64.
func expectedSize(msg *rosmsg.Image) uint64 {
	hi, pixels := bits.Mul64(uint64(msg.Width), uint64(msg.Height))
	if hi != 0 {
		return math.MaxUint64
	}
	hi, total := bits.Mul64(pixels, uint64(bytesPerPixel(msg.Encoding)))
	if hi != 0 {
		return math.MaxUint64
	}
	return total
}

func packed422(encoding string) bool {
	switch encoding {
	case "yuv422", "uyvy", "yuv422_yuy2", "yuyv":
		return true
	}
	return false
}

// decodeYUV422 converts packed 4:2:2 data. UYVY orders each pixel pair as
// U Y0 V Y1, YUYV as Y0 U Y1 V.
func decodeYUV422(width, height int, row func(int) []byte, yuyv bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := row(y)
		dst := img.Pix[y*img.Stride:]
		// Width is even, so every pixel pair is complete.
		for x := 0; x < width; x += 2 {
			p := src[2*x:]
			var y0, y1, cb, cr byte
			if yuyv {
				y0, cb, y1, cr = p[0], p[1], p[2], p[3]
			} else {
				cb, y0, cr, y1 = p[0], p[1], p[2], p[3]
			}
			r, g, b := color.YCbCrToRGB(y0, cb, cr)
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = r, g, b, 0xFF
			r, g, b = color.YCbCrToRGB(y1, cb, cr)
			dst[4*x+4], dst[4*x+5], dst[4*x+6], dst[4*x+7] = r, g, b, 0xFF
		}
	}
	return img
}

// decodeBayer demosaics an 8-bit Bayer mosaic by assigning each 2x2 cell
// its own red, averaged green and blue samples.
func decodeBayer(width, height int, row func(int) []byte, pattern string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Position of each channel within the 2x2 cell, row-major.
	var ri, bi int
	var gi [2]int
	switch pattern {
	case "rggb":
		ri, gi, bi = 0, [2]int{1, 2}, 3
	case "bggr":
		bi, gi, ri = 0, [2]int{1, 2}, 3
	case "gbrg":
		gi, bi, ri = [2]int{0, 3}, 1, 2
	default: // grbg
		gi, ri, bi = [2]int{0, 3}, 1, 2
	}

	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x += 2 {
			var cell [4]byte
			for i := 0; i < 4; i++ {
				cy, cx := y+i/2, x+i%2
				if cy >= height {
					cy = height - 1
				}
				if cx >= width {
					cx = width - 1
				}
				cell[i] = row(cy)[cx]
			}
			r := cell[ri]
			g := byte((int(cell[gi[0]]) + int(cell[gi[1]])) / 2)
			b := cell[bi]
			for i := 0; i < 4; i++ {
				cy, cx := y+i/2, x+i%2
				if cy < height && cx < width {
					off := cy*img.Stride + cx*4
					img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = r, g, b, 0xFF
				}
			}
		}
	}
	return img
}
