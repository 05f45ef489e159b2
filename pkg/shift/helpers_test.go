package shift

import (
	"bytes"
	"encoding/binary"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// buildTIFF writes a minimal uncompressed little-endian BlackIsZero
// TIFF with a single strip. It can describe depths that tiff.Encode
// refuses to produce.
func buildTIFF(width, height, bitsPerSample, samplesPerPixel int, pix []byte) []byte {
	return buildTIFFPhotometric(width, height, bitsPerSample, samplesPerPixel, 1, pix)
}

func buildTIFFPhotometric(width, height, bitsPerSample, samplesPerPixel, photometric int, pix []byte) []byte {
	type entry struct {
		tag, typ uint16
		val      uint32
	}
	const (
		short = 3
		long  = 4
	)

	entries := []entry{
		{256, short, uint32(width)},
		{257, short, uint32(height)},
		{258, short, uint32(bitsPerSample)},
		{259, short, 1}, // no compression
		{262, short, uint32(photometric)},
		{273, long, 0},  // strip offset, patched below
		{277, short, uint32(samplesPerPixel)},
		{278, short, uint32(height)},
		{279, long, uint32(len(pix))},
	}
	dataOffset := uint32(8 + 2 + 12*len(entries) + 4)
	entries[5].val = dataOffset

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8))
	binary.Write(&buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, le, e.tag)
		binary.Write(&buf, le, e.typ)
		binary.Write(&buf, le, uint32(1))
		if e.typ == short {
			binary.Write(&buf, le, uint16(e.val))
			binary.Write(&buf, le, uint16(0))
		} else {
			binary.Write(&buf, le, e.val)
		}
	}
	binary.Write(&buf, le, uint32(0)) // no next IFD
	buf.Write(pix)
	return buf.Bytes()
}

// le16 packs 16-bit samples low byte first.
func le16(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, data, 0o644))
	return filename
}

func encodeTIFF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	return buf.Bytes()
}

func mustImage(t *testing.T, w, h int, vals []float64) Image {
	t.Helper()
	img, err := NewImage(Byte, w, h, vals)
	require.NoError(t, err)
	return img
}

func singlePixel(t *testing.T, w, h, x, y int) Image {
	t.Helper()
	vals := make([]float64, w*h)
	vals[y*w+x] = 1
	return mustImage(t, w, h, vals)
}

func noise(rng *rand.Rand, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(rng.Intn(256))
	}
	return vals
}

// shiftedPair returns a noise image A and an image B holding A's
// content moved by off, so that A(x,y) == B(x+dx, y+dy). Pixels of B
// with no source in A are fresh noise.
func shiftedPair(t *testing.T, rng *rand.Rand, w, h int, off Offset) (Image, Image) {
	t.Helper()
	a := noise(rng, w*h)
	b := noise(rng, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x-off.DX, y-off.DY
			if sx >= 0 && sx < w && sy >= 0 && sy < h {
				b[y*w+x] = a[sy*w+sx]
			}
		}
	}
	return mustImage(t, w, h, a), mustImage(t, w, h, b)
}
