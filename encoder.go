package qoi

import (
	"bufio"
	"io"
)

// Encoder holds the running predictor state for one encode operation:
// the previous pixel, the pending run length, and the 64-entry color
// table. It is single-use — create one per image with NewEncoder.
type Encoder struct {
	w         *bufio.Writer
	table     colorTable
	prev      Pixel
	runLength int
	err       error
}

// NewEncoder wraps w for one encode operation. Callers write the
// header themselves (or rely on EncodeStream to do both).
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), prev: defaultPrevPixel}
}

// EncodeStream writes the header, then every pixel from src as a
// sequence of chunks chosen by the priority order in the chunk
// selector, then the end marker.
func EncodeStream(w io.Writer, h Header, src PixelSource) error {
	bw := bufio.NewWriter(w)
	if err := encodeHeader(bw, h); err != nil {
		return err
	}
	e := &Encoder{w: bw, prev: defaultPrevPixel}
	for {
		p, ok := src.NextPixel()
		if !ok {
			break
		}
		e.EncodePixel(p)
	}
	if e.err != nil {
		return e.err
	}
	return e.Close()
}

// EncodePixel feeds one pixel into the chunk selector of §4.3: run,
// color-table hit, diff, luma, RGB, RGBA, tried in that order and
// mutually exclusive. Errors are sticky — once set, further calls and
// Close are no-ops that return the same error.
func (e *Encoder) EncodePixel(cur Pixel) {
	if e.err != nil {
		return
	}

	if cur == e.prev {
		e.runLength++
		if e.runLength == maxRunLength {
			e.writeRun(e.runLength)
			e.runLength = 0
		}
		return
	}

	if e.runLength > 0 {
		e.writeRun(e.runLength)
		e.runLength = 0
	}

	if idx, hit := e.table.matchPut(cur); hit {
		e.writeByte(byte(tagIndex) | idx)
		e.prev = cur
		return
	}

	if cur.A == e.prev.A {
		dr := int8(cur.R - e.prev.R)
		dg := int8(cur.G - e.prev.G)
		db := int8(cur.B - e.prev.B)

		if fitsInSigned(2, dr) && fitsInSigned(2, dg) && fitsInSigned(2, db) {
			e.writeDiff(dr, dg, db)
			e.prev = cur
			return
		}

		drdg := dr - dg
		dbdg := db - dg
		if fitsInSigned(6, dg) && fitsInSigned(4, drdg) && fitsInSigned(4, dbdg) {
			e.writeLuma(dg, drdg, dbdg)
			e.prev = cur
			return
		}

		e.writeRGB(cur)
		e.prev = cur
		return
	}

	e.writeRGBA(cur)
	e.prev = cur
}

// Close flushes any pending run and writes the end marker. It must be
// called exactly once, after the last call to EncodePixel.
func (e *Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	if e.runLength > 0 {
		e.writeRun(e.runLength)
		e.runLength = 0
	}
	if e.err != nil {
		return e.err
	}
	if _, err := e.w.Write(endMarker[:]); err != nil {
		e.err = err
		return err
	}
	e.err = e.w.Flush()
	return e.err
}

func (e *Encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *Encoder) writeRun(length int) {
	e.writeByte(byte(tagRun) | byte(length-1))
}

func (e *Encoder) writeDiff(dr, dg, db int8) {
	b := byte(tagDiff)
	b |= addBias(dr, 2) << 4
	b |= addBias(dg, 2) << 2
	b |= addBias(db, 2)
	e.writeByte(b)
}

func (e *Encoder) writeLuma(dg, drdg, dbdg int8) {
	e.writeByte(byte(tagLuma) | addBias(dg, 32))
	if e.err != nil {
		return
	}
	e.writeByte(addBias(drdg, 8)<<4 | addBias(dbdg, 8))
}

func (e *Encoder) writeRGB(p Pixel) {
	e.writeByte(byte(tagRGB))
	e.writeByte(p.R)
	e.writeByte(p.G)
	e.writeByte(p.B)
}

func (e *Encoder) writeRGBA(p Pixel) {
	e.writeByte(byte(tagRGBA))
	e.writeByte(p.R)
	e.writeByte(p.G)
	e.writeByte(p.B)
	e.writeByte(p.A)
}
