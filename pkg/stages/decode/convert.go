package decode

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"

	"github.com/user/mcapvideo/pkg/pipeline"
)

// ErrConversion is returned when a source encoding cannot be converted to
// the desired encoding.
var ErrConversion = errors.New("decode: conversion not possible")

// convert turns a natively decoded image into the desired encoding.
// sourceEncoding is the record's declared encoding, or empty for compressed
// images, which always carry color information.
func convert(img image.Image, sourceEncoding string, desired pipeline.Encoding) (image.Image, error) {
	if desired == pipeline.EncodingPassthrough {
		return img, nil
	}

	// Generic CV types carry no color information, so they can only be
	// reinterpreted as themselves.
	if sourceEncoding != "" {
		if l, ok := lookupLayout(sourceEncoding); ok && !l.named {
			return nil, fmt.Errorf("%w: [%s] is not a color format. but [%s] is",
				ErrConversion, strings.ToLower(sourceEncoding), desired)
		}
	}

	switch desired {
	case pipeline.EncodingBGR8, pipeline.EncodingRGB8:
		return toColor(img), nil
	case pipeline.EncodingMono8:
		return toGray(img), nil
	case pipeline.EncodingMono16:
		return toGray16(img), nil
	default:
		return nil, fmt.Errorf("%w: unknown desired encoding %q", ErrConversion, desired)
	}
}

// isGray reports whether img holds a single channel.
func isGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}

// toColor returns an opaque RGBA copy of img. Alpha is dropped, not
// composited.
func toColor(img image.Image) *image.RGBA {
	switch t := img.(type) {
	case *image.RGBA:
		return t
	case *image.NRGBA:
		b := t.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			src := t.Pix[y*t.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out[4*x], out[4*x+1], out[4*x+2], out[4*x+3] = src[4*x], src[4*x+1], src[4*x+2], 0xFF
			}
		}
		return dst
	default:
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
}

// toGray returns an 8-bit single channel copy of img. 16-bit samples keep
// their high byte.
func toGray(img image.Image) *image.Gray {
	switch t := img.(type) {
	case *image.Gray:
		return t
	case *image.Gray16:
		b := t.Bounds()
		dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			src := t.Pix[y*t.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out[x] = src[2*x]
			}
		}
		return dst
	case *image.NRGBA:
		img = toColor(t)
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// toGray16 returns a 16-bit single channel copy of img.
func toGray16(img image.Image) *image.Gray16 {
	switch t := img.(type) {
	case *image.Gray16:
		return t
	case *image.Gray:
		b := t.Bounds()
		dst := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			src := t.Pix[y*t.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out[2*x], out[2*x+1] = src[x], src[x]
			}
		}
		return dst
	case *image.NRGBA:
		img = toColor(t)
	}
	b := img.Bounds()
	dst := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
