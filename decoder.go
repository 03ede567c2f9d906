package qoi

import (
	"bufio"
	"fmt"
	"io"
)

// decoderState names the states of the decoding state machine
// described in §4.4/§9: Running accepts the next chunk's first byte;
// InsideRun is replaying a buffered OP_RUN; Finished and Failed are
// terminal.
type decoderState int

const (
	stateRunning decoderState = iota
	stateInsideRun
	stateFinished
	stateFailed
)

// PixelIterator is the lazy, finite pixel sequence produced by
// DecodeStream. It holds only the running decoder state (tens of
// bytes plus the 64-entry color table) — it never buffers the whole
// image.
type PixelIterator struct {
	r             *bufio.Reader
	table         colorTable
	prev          Pixel
	state         decoderState
	remainingRun  int
	failureReason error
}

// DecodeStream parses the header and returns an iterator over the
// pixel sequence that follows. Decoding is lazy: no chunk past the
// header is read until the first call to Next.
func DecodeStream(r io.Reader) (Header, *PixelIterator, error) {
	br := bufio.NewReader(r)
	h, err := decodeHeader(br)
	if err != nil {
		return Header{}, nil, err
	}
	return h, &PixelIterator{r: br, prev: defaultPrevPixel, state: stateRunning}, nil
}

// Next returns the next pixel, io.EOF once the end marker has been
// consumed, or a decode error. Once Next returns an error (including
// io.EOF) it returns the same outcome on every subsequent call.
func (it *PixelIterator) Next() (Pixel, error) {
	switch it.state {
	case stateFinished:
		return Pixel{}, io.EOF
	case stateFailed:
		return Pixel{}, it.failureReason
	case stateInsideRun:
		it.remainingRun--
		if it.remainingRun == 0 {
			it.state = stateRunning
		}
		return it.prev, nil
	}
	return it.decodeNextChunk()
}

func (it *PixelIterator) fail(err error) (Pixel, error) {
	it.state = stateFailed
	it.failureReason = err
	return Pixel{}, err
}

// decodeNextChunk reads and classifies one chunk's leading byte, with
// 8-bit tags (OP_RGB, OP_RGBA) tested before 2-bit tags, and resolves
// the OP_INDEX(0) / end-marker ambiguity with one byte of lookahead
// via UnreadByte — no unbounded lookahead, no backtracking past one
// byte.
func (it *PixelIterator) decodeNextChunk() (Pixel, error) {
	b, err := it.r.ReadByte()
	if err != nil {
		return it.fail(ioFail(err))
	}

	switch {
	case b == byte(tagRGB):
		return it.decodeRGB()
	case b == byte(tagRGBA):
		return it.decodeRGBA()
	case b == 0x00:
		return it.decodeIndexZeroOrEndMarker()
	case b&tagMask2 == byte(tagIndex):
		return it.decodeIndex(b)
	case b&tagMask2 == byte(tagDiff):
		return it.decodeDiff(b)
	case b&tagMask2 == byte(tagLuma):
		return it.decodeLuma(b)
	default: // b&tagMask2 == tagRun
		return it.decodeRun(b)
	}
}

func (it *PixelIterator) emit(p Pixel) (Pixel, error) {
	it.prev = p
	it.table.matchPut(p)
	return p, nil
}

func (it *PixelIterator) decodeRGB() (Pixel, error) {
	var buf [3]byte
	if _, err := io.ReadFull(it.r, buf[:]); err != nil {
		return it.fail(truncatedChunk(err))
	}
	return it.emit(Pixel{R: buf[0], G: buf[1], B: buf[2], A: it.prev.A})
}

func (it *PixelIterator) decodeRGBA() (Pixel, error) {
	var buf [4]byte
	if _, err := io.ReadFull(it.r, buf[:]); err != nil {
		return it.fail(truncatedChunk(err))
	}
	return it.emit(Pixel{R: buf[0], G: buf[1], B: buf[2], A: buf[3]})
}

// decodeIndex handles every legitimate OP_INDEX(i) with i != 0 — i==0
// is ambiguous with the end marker and is handled separately.
func (it *PixelIterator) decodeIndex(b byte) (Pixel, error) {
	idx := b & 0x3F
	p := it.table.get(idx)
	it.prev = p
	return p, nil
}

func (it *PixelIterator) decodeDiff(b byte) (Pixel, error) {
	dr := subBias((b>>4)&0x3, 2)
	dg := subBias((b>>2)&0x3, 2)
	db := subBias(b&0x3, 2)
	return it.emit(it.prev.Add(dr, dg, db, 0))
}

func (it *PixelIterator) decodeLuma(b byte) (Pixel, error) {
	b1, err := it.r.ReadByte()
	if err != nil {
		return it.fail(truncatedChunk(err))
	}
	dg := subBias(b&0x3F, 32)
	dr := dg + subBias((b1>>4)&0xF, 8)
	db := dg + subBias(b1&0xF, 8)
	return it.emit(it.prev.Add(dr, dg, db, 0))
}

func (it *PixelIterator) decodeRun(b byte) (Pixel, error) {
	length := int(b&0x3F) + 1
	it.remainingRun = length - 1
	if it.remainingRun > 0 {
		it.state = stateInsideRun
	}
	return it.prev, nil
}

// decodeIndexZeroOrEndMarker resolves the one byte of ambiguity
// between a legitimate OP_INDEX(0) chunk and the first byte of the
// 8-byte end marker, per §4.4. A 0x00 followed by seven more zero
// bytes and a final 0x01 is an OP_INDEX(0) chunk directly followed by
// the end marker: its pixel is returned and the iterator is finished.
func (it *PixelIterator) decodeIndexZeroOrEndMarker() (Pixel, error) {
	pending := it.table.get(0)

	b2, err := it.r.ReadByte()
	if err != nil {
		return it.fail(truncatedChunk(err))
	}

	if b2 != 0x00 {
		if err := it.r.UnreadByte(); err != nil {
			return it.fail(ioFail(err))
		}
		it.prev = pending
		return pending, nil
	}

	var rest [6]byte
	if _, err := io.ReadFull(it.r, rest[:]); err != nil {
		return it.fail(truncatedChunk(err))
	}
	if rest == [6]byte{} {
		last, err := it.r.ReadByte()
		if err != nil {
			return it.fail(truncatedChunk(err))
		}
		if last != 0x01 {
			return it.fail(newFormatError(InvalidFormat, fmt.Sprintf("malformed end marker, final byte %x", last)))
		}
		it.prev = pending
		it.state = stateFinished
		return pending, nil
	}
	if rest != [6]byte{0, 0, 0, 0, 0, 1} {
		return it.fail(newFormatError(InvalidFormat, fmt.Sprintf("malformed end marker, trailing bytes %x", rest)))
	}
	it.state = stateFinished
	return Pixel{}, io.EOF
}

func ioFail(err error) error {
	if err == io.EOF {
		return newFormatError(InvalidFormat, "unexpected end of stream")
	}
	return fmt.Errorf("qoi: reading chunk: %w", err)
}

func truncatedChunk(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newFormatError(InvalidFormat, "chunk truncated at end of stream")
	}
	return fmt.Errorf("qoi: reading chunk: %w", err)
}
