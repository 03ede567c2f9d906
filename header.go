package qoi

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerSize = 14
	magic      = "qoif"

	ColorspaceSRGB   uint8 = 0
	ColorspaceLinear uint8 = 1
)

// Header is the fixed 14-byte record at the start of every QOI stream.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

type wireHeader struct {
	Magic      [4]byte
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

// encodeHeader writes the 14-byte big-endian header layout directly
// to w, with no intermediate byte slice.
func encodeHeader(w io.Writer, h Header) error {
	wh := wireHeader{Width: h.Width, Height: h.Height, Channels: h.Channels, Colorspace: h.Colorspace}
	copy(wh.Magic[:], magic)
	return binary.Write(w, binary.BigEndian, wh)
}

// decodeHeader reads and validates the 14-byte header, failing with
// InvalidMagic or InvalidColorspace on a structural violation (or
// InvalidFormat when channels is not 3 or 4), or the underlying read
// error (wrapped) on I/O failure.
func decodeHeader(r io.Reader) (Header, error) {
	var wh wireHeader
	if err := binary.Read(r, binary.BigEndian, &wh); err != nil {
		return Header{}, fmt.Errorf("qoi: reading header: %w", err)
	}
	if string(wh.Magic[:]) != magic {
		return Header{}, &FormatError{Kind: InvalidMagic, Msg: fmt.Sprintf("got %q", wh.Magic[:])}
	}
	if wh.Colorspace != ColorspaceSRGB && wh.Colorspace != ColorspaceLinear {
		return Header{}, &FormatError{Kind: InvalidColorspace, Msg: fmt.Sprintf("got %d", wh.Colorspace)}
	}
	if wh.Channels != 3 && wh.Channels != 4 {
		return Header{}, &FormatError{Kind: InvalidFormat, Msg: fmt.Sprintf("channels must be 3 or 4, got %d", wh.Channels)}
	}
	return Header{Width: wh.Width, Height: wh.Height, Channels: wh.Channels, Colorspace: wh.Colorspace}, nil
}

// Validate checks width*height against pixelCount. It is never called
// implicitly by EncodeStream or DecodeStream — callers opt in when
// they need the check and are willing to give up streaming semantics
// to get it (an image's pixel count is only known once fully decoded).
func (h Header) Validate(pixelCount int) error {
	want := uint64(h.Width) * uint64(h.Height)
	if want != uint64(pixelCount) {
		return newFormatError(InvalidFormat, fmt.Sprintf("width*height = %d, but got %d pixels", want, pixelCount))
	}
	return nil
}
