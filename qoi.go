// Package qoi implements the QOI ("Quite OK Image") lossless image
// format: a streaming encoder and decoder built around six mutually
// exclusive chunk types and a 64-slot running color hash.
package qoi

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
)

func init() {
	image.RegisterFormat("qoi", magic, Decode, DecodeConfig)
}

// Decode reads a QOI stream from r and returns it as an image.Image,
// built on the streaming core (DecodeStream/PixelIterator).
func Decode(r io.Reader) (image.Image, error) {
	h, it, err := DecodeStream(r)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(h.Width), int(h.Height)))
	n := int(h.Width) * int(h.Height)
	for i := 0; i < n; i++ {
		p, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("qoi: decoding pixel %d: %w", i, err)
		}
		off := i * 4
		img.Pix[off] = p.R
		img.Pix[off+1] = p.G
		img.Pix[off+2] = p.B
		img.Pix[off+3] = p.A
	}
	if _, err := it.Next(); err != io.EOF {
		return nil, newFormatError(InvalidFormat, "trailing chunks after declared pixel count")
	}
	return img, nil
}

// DecodeConfig returns the color model and dimensions of a QOI image
// without decoding any pixel.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := decodeHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

// Encode writes m to w as a QOI stream, built on the streaming core
// (EncodeStream/ImagePixelSource).
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	h := Header{
		Width:      uint32(b.Dx()),
		Height:     uint32(b.Dy()),
		Channels:   4,
		Colorspace: ColorspaceSRGB,
	}
	return EncodeStream(w, h, NewImagePixelSource(m))
}

// EncodeFile encodes src into path, creating or truncating the file.
func EncodeFile(path string, h Header, src PixelSource) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeStream(f, h, src); err != nil {
		return err
	}
	return f.Close()
}

// DecodeFile decodes the QOI file at path into a header and a
// collected slice of pixels. Unlike DecodeStream, this is not
// streaming — it is the in-memory convenience mentioned in §5, and
// materializes the full image in memory.
func DecodeFile(path string) (Header, []Pixel, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	h, it, err := DecodeStream(f)
	if err != nil {
		return Header{}, nil, err
	}
	var pixels []Pixel
	for {
		p, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Header{}, nil, err
		}
		pixels = append(pixels, p)
	}
	return h, pixels, nil
}
