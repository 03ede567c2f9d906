package qoi

import (
	"image"
	"image/color"
)

// Pixel is a 4-tuple of 8-bit channels. All arithmetic on channels is
// modulo 256; Add performs that wrapping addition componentwise.
type Pixel struct {
	R, G, B, A uint8
}

func (p Pixel) Add(dr, dg, db, da int8) Pixel {
	return Pixel{
		R: p.R + uint8(dr),
		G: p.G + uint8(dg),
		B: p.B + uint8(db),
		A: p.A + uint8(da),
	}
}

// hashIndex is the fixed 64-slot running-hash index used by both the
// encoder and the decoder's color table.
func (p Pixel) hashIndex() uint8 {
	return (p.R*3 + p.G*5 + p.B*7 + p.A*11) % 64
}

// defaultPrevPixel is the initial value of prev_pixel for both the
// encoder and the decoder, per the QOI reference implementation.
var defaultPrevPixel = Pixel{R: 0, G: 0, B: 0, A: 255}

// PixelSource yields a finite, non-restartable sequence of pixels.
// NextPixel returns ok=false exactly once, at and after exhaustion.
type PixelSource interface {
	NextPixel() (p Pixel, ok bool)
}

// SlicePixelSource adapts a pixel slice to PixelSource.
type SlicePixelSource struct {
	pixels []Pixel
	pos    int
}

func NewSlicePixelSource(pixels []Pixel) *SlicePixelSource {
	return &SlicePixelSource{pixels: pixels}
}

func (s *SlicePixelSource) NextPixel() (Pixel, bool) {
	if s.pos >= len(s.pixels) {
		return Pixel{}, false
	}
	p := s.pixels[s.pos]
	s.pos++
	return p, true
}

// BufferLayout describes how channels are packed in a RawBufferPixelSource.
type BufferLayout int

const (
	LayoutRGB24 BufferLayout = iota
	LayoutRGBA32
)

func (l BufferLayout) stride() int {
	if l == LayoutRGBA32 {
		return 4
	}
	return 3
}

// RawBufferPixelSource adapts a packed byte buffer (RGB24 or RGBA32,
// scan-line order) to PixelSource. Pixels with no alpha byte in the
// buffer are reported fully opaque.
type RawBufferPixelSource struct {
	buf    []byte
	layout BufferLayout
	pos    int
}

func NewRawBufferPixelSource(buf []byte, layout BufferLayout) *RawBufferPixelSource {
	return &RawBufferPixelSource{buf: buf, layout: layout}
}

func (s *RawBufferPixelSource) NextPixel() (Pixel, bool) {
	stride := s.layout.stride()
	if s.pos+stride > len(s.buf) {
		return Pixel{}, false
	}
	p := Pixel{R: s.buf[s.pos], G: s.buf[s.pos+1], B: s.buf[s.pos+2], A: 255}
	if s.layout == LayoutRGBA32 {
		p.A = s.buf[s.pos+3]
	}
	s.pos += stride
	return p, true
}

// ImagePixelSource adapts an image.Image to PixelSource in scan-line
// order, converting every pixel through color.NRGBAModel. Grounded on
// the teacher repo's imageReader, which walked an image.Image the
// same way for its own chunk selector.
type ImagePixelSource struct {
	m    image.Image
	b    image.Rectangle
	x, y int
	done bool
}

func NewImagePixelSource(m image.Image) *ImagePixelSource {
	b := m.Bounds()
	return &ImagePixelSource{m: m, b: b, x: b.Min.X, y: b.Min.Y, done: b.Empty()}
}

func (s *ImagePixelSource) NextPixel() (Pixel, bool) {
	if s.done {
		return Pixel{}, false
	}
	c := color.NRGBAModel.Convert(s.m.At(s.x, s.y)).(color.NRGBA)
	p := Pixel{R: c.R, G: c.G, B: c.B, A: c.A}

	s.x++
	if s.x == s.b.Max.X {
		s.x = s.b.Min.X
		s.y++
	}
	if s.y >= s.b.Max.Y {
		s.done = true
	}
	return p, true
}
