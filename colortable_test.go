package qoi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorTableMatchPut(t *testing.T) {
	var tbl colorTable

	p := Pixel{R: 10, G: 20, B: 30, A: 255}
	idx, hit := tbl.matchPut(p)
	require.False(t, hit, "first sight of a pixel is always a miss")
	require.Equal(t, p, tbl.get(idx))

	idx2, hit := tbl.matchPut(p)
	require.True(t, hit)
	require.Equal(t, idx, idx2)
	require.Equal(t, p, tbl.get(idx))
}

func TestColorTableOverwriteOnMiss(t *testing.T) {
	var tbl colorTable

	// Two pixels that hash to the same slot: collide by construction.
	a := Pixel{R: 1, G: 0, B: 0, A: 0}
	idxA := a.hashIndex()

	var b Pixel
	for r := 0; r < 256; r++ {
		cand := Pixel{R: uint8(r), G: 0, B: 0, A: 0}
		if cand != a && cand.hashIndex() == idxA {
			b = cand
			break
		}
	}
	require.NotEqual(t, Pixel{}, b, "expected to find a colliding pixel")

	_, hit := tbl.matchPut(a)
	require.False(t, hit)
	_, hit = tbl.matchPut(b)
	require.False(t, hit, "collision is a miss, not a hit")
	require.Equal(t, b, tbl.get(idxA))

	_, hit = tbl.matchPut(a)
	require.False(t, hit, "a was evicted by b's collision")
}

func TestColorTableHashFormula(t *testing.T) {
	p := Pixel{R: 10, G: 0, B: 0, A: 255}
	require.EqualValues(t, (10*3+0*5+0*7+255*11)%64, p.hashIndex())
}
