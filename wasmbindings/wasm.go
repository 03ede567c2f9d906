//go:build wasm

// Package wasmbindings exposes the codec to a host JavaScript runtime
// via the C-layout structs described in spec §6. There is no
// third-party WASM runtime anywhere in the examples this module was
// grounded on, so this is unsafe over the stdlib, not a fallback from
// some richer alternative.
package wasmbindings

import (
	"bytes"
	"unsafe"

	"github.com/qoigo/qoi"
)

// arena keeps allocated buffers alive on the Go side; wasm exports
// hand the host a pointer into the buffer's backing array, which the
// Go GC would otherwise be free to move or collect.
var arena = map[uintptr][]byte{}

func ptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

//export allocate_buffer
func allocate_buffer(length uint32) uintptr {
	buf := make([]byte, length)
	p := ptrOf(buf)
	arena[p] = buf
	return p
}

//export free_buffer
func free_buffer(ptr uintptr, length uint32) {
	delete(arena, ptr)
}

func bufferAt(ptr uintptr, length uint32) []byte {
	return arena[ptr][:length]
}

// bufOut is the {buf ptr, len u32} struct described in spec §6.
type bufOut struct {
	buf uintptr
	len uint32
}

// imageOut is the {width, height, channels, colorspace, buf, len} struct.
type imageOut struct {
	width      uint32
	height     uint32
	channels   uint8
	colorspace uint8
	buf        uintptr
	len        uint32
}

func outOf(out bufOut) uintptr {
	buf := make([]byte, 8)
	le := func(v uint32) [4]byte { return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
	copy(buf[0:4], le(uint32(out.buf))[:])
	copy(buf[4:8], le(out.len)[:])
	p := ptrOf(buf)
	arena[p] = buf
	return p
}

//export encode
func encode(width, height uint32, rgbaPtr uintptr, rgbaLen uint32) uintptr {
	rgba := bufferAt(rgbaPtr, rgbaLen)
	h := qoi.Header{Width: width, Height: height, Channels: 4, Colorspace: qoi.ColorspaceSRGB}

	var out bytes.Buffer
	if err := qoi.EncodeStream(&out, h, qoi.NewRawBufferPixelSource(rgba, qoi.LayoutRGBA32)); err != nil {
		return outOf(bufOut{})
	}

	encoded := out.Bytes()
	p := ptrOf(encoded)
	arena[p] = encoded
	return outOf(bufOut{buf: p, len: uint32(len(encoded))})
}

//export decode
func decode(ptr uintptr, length uint32) uintptr {
	data := bufferAt(ptr, length)
	h, pixels, err := decodeAll(data)
	if err != nil {
		return imageOutPtr(imageOut{})
	}

	rgba := make([]byte, len(pixels)*4)
	for i, p := range pixels {
		rgba[i*4] = p.R
		rgba[i*4+1] = p.G
		rgba[i*4+2] = p.B
		rgba[i*4+3] = p.A
	}
	p := ptrOf(rgba)
	arena[p] = rgba
	return imageOutPtr(imageOut{
		width: h.Width, height: h.Height,
		channels: h.Channels, colorspace: h.Colorspace,
		buf: p, len: uint32(len(rgba)),
	})
}

func decodeAll(data []byte) (qoi.Header, []qoi.Pixel, error) {
	h, it, err := qoi.DecodeStream(bytes.NewReader(data))
	if err != nil {
		return qoi.Header{}, nil, err
	}
	var pixels []qoi.Pixel
	for {
		p, err := it.Next()
		if err != nil {
			break
		}
		pixels = append(pixels, p)
	}
	return h, pixels, nil
}

func imageOutPtr(out imageOut) uintptr {
	buf := make([]byte, 18)
	le32 := func(off int, v uint32) {
		buf[off], buf[off+1], buf[off+2], buf[off+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	le32(0, out.width)
	le32(4, out.height)
	buf[8] = out.channels
	buf[9] = out.colorspace
	le32(10, uint32(out.buf))
	le32(14, out.len)
	p := ptrOf(buf)
	arena[p] = buf
	return p
}
