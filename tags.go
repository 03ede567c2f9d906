package qoi

// tag identifies a chunk's opcode. OP_RGB and OP_RGBA occupy the full
// 8-bit space; the other four opcodes are distinguished by their top
// two bits, so 8-bit tags must be tested before 2-bit tags.
type tag uint8

const (
	tagRGB   tag = 0b11111110
	tagRGBA  tag = 0b11111111
	tagIndex tag = 0b00000000
	tagDiff  tag = 0b01000000
	tagLuma  tag = 0b10000000
	tagRun   tag = 0b11000000

	tagMask2 = 0b11000000

	maxRunLength = 62
)

var endMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}
