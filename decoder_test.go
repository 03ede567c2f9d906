package qoi

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, data []byte) (Header, []Pixel, error) {
	t.Helper()
	h, it, err := DecodeStream(bytes.NewReader(data))
	if err != nil {
		return h, nil, err
	}
	var pixels []Pixel
	for {
		p, err := it.Next()
		if err == io.EOF {
			return h, pixels, nil
		}
		if err != nil {
			return h, pixels, err
		}
		pixels = append(pixels, p)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	h := Header{Width: 4, Height: 1, Channels: 4, Colorspace: ColorspaceSRGB}
	pixels := []Pixel{
		{1, 2, 3, 255},
		{1, 2, 3, 255},
		{200, 0, 50, 255},
		{200, 0, 50, 128},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeStream(&buf, h, NewSlicePixelSource(pixels)))

	gotHeader, gotPixels, err := decodeAll(t, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, gotHeader)
	require.Equal(t, pixels, gotPixels)
}

// S4 — a malformed end marker must surface InvalidFormat.
func TestDecodeScenarioS4(t *testing.T) {
	h := Header{Width: 10, Height: 1, Channels: 4}
	var hdr bytes.Buffer
	require.NoError(t, encodeHeader(&hdr, h))
	stream := append(hdr.Bytes(), 0x00, 0x00, 0xFE, 0x05, 0x06, 0x07, 0, 0, 0, 0)

	_, _, err := decodeAll(t, stream)
	require.Error(t, err)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, InvalidFormat, fe.Kind)
}

// S5 — a legitimate OP_INDEX(0) followed by an OP_RGB chunk.
func TestDecodeScenarioS5(t *testing.T) {
	h := Header{Width: 10, Height: 1, Channels: 4}
	var hdr bytes.Buffer
	require.NoError(t, encodeHeader(&hdr, h))
	stream := append(hdr.Bytes(), 0x00, 0xFE, 0x10, 0x20, 0x30)
	stream = append(stream, endMarker[:]...)

	_, pixels, err := decodeAll(t, stream)
	require.NoError(t, err)
	require.Len(t, pixels, 2)
	require.Equal(t, Pixel{0, 0, 0, 0}, pixels[0], "table[0] starts at the zero pixel")
	require.Equal(t, Pixel{R: 0x10, G: 0x20, B: 0x30, A: 0}, pixels[1], "alpha carries over from prev")
}

// S6 — a PNG-magic stream is rejected before any pixel is produced.
func TestDecodeScenarioS6(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, _, err := DecodeStream(bytes.NewReader(data))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidMagic))
}

func TestDecodeRunNeverExceeds62(t *testing.T) {
	h := Header{Width: 1, Height: 1, Channels: 4}
	var hdr bytes.Buffer
	require.NoError(t, encodeHeader(&hdr, h))
	// OP_RUN with the 6-bit field at its max legal value, length 62.
	stream := append(hdr.Bytes(), byte(tagRun)|0x3D)
	stream = append(stream, endMarker[:]...)

	_, pixels, err := decodeAll(t, stream)
	require.NoError(t, err)
	require.Len(t, pixels, 62)
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	h := Header{Width: 1, Height: 1, Channels: 4}
	var hdr bytes.Buffer
	require.NoError(t, encodeHeader(&hdr, h))
	stream := append(hdr.Bytes(), byte(tagRGB), 1, 2) // missing 1 byte + end marker

	_, _, err := decodeAll(t, stream)
	require.Error(t, err)
}

func TestDecodeIndexChunkYieldsTablePixel(t *testing.T) {
	h := Header{Width: 3, Height: 1, Channels: 4}
	a := Pixel{R: 10, G: 0, B: 0, A: 255}
	var buf bytes.Buffer
	require.NoError(t, EncodeStream(&buf, h, NewSlicePixelSource([]Pixel{a, {0, 10, 0, 255}, a})))

	_, pixels, err := decodeAll(t, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, a, pixels[2])
}
