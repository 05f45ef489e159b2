package shift

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixels(img Image) [][]float64 {
	rows := make([][]float64, img.Height())
	for y := range rows {
		for x := 0; x < img.Width(); x++ {
			rows[y] = append(rows[y], img.At(x, y))
		}
	}
	return rows
}

func TestLoad8BitRamp(t *testing.T) {
	row := []byte{0, 64, 128, 192}
	pix := bytes.Repeat(row, 4)
	filename := writeFile(t, "4by4ramp.tif", buildTIFF(4, 4, 8, 1, pix))

	img, err := Load(filename)
	require.NoError(t, err)

	assert.Equal(t, Byte, img.Depth)
	assert.Equal(t, "Image[4x4, 8-bit byte]", img.String())
	want := [][]float64{
		{0, 64, 128, 192},
		{0, 64, 128, 192},
		{0, 64, 128, 192},
		{0, 64, 128, 192},
	}
	if diff := cmp.Diff(want, pixels(img)); diff != "" {
		t.Errorf("8-bit ramp mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad16BitRamp(t *testing.T) {
	ramp := le16(0, 16384, 32768, 49152)

	tests := []struct {
		name   string
		height int
	}{
		{"4by1ramp16bit", 1},
		{"16ramp4by3", 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pix := bytes.Repeat(ramp, tc.height)
			filename := writeFile(t, tc.name+".tif", buildTIFF(4, tc.height, 16, 1, pix))

			img, err := Load(filename)
			require.NoError(t, err)

			assert.Equal(t, Wide, img.Depth)
			assert.Equal(t, 16, img.Depth.BitsPerSample())
			assert.Equal(t, 4, img.Width())
			assert.Equal(t, tc.height, img.Height())
			for y := 0; y < tc.height; y++ {
				assert.Equal(t, []float64{0, 16384, 32768, 49152}, pixels(img)[y])
			}
		})
	}
}

// WhiteIsZero files hold the same raw samples; they must load as
// stored, not flipped to match a BlackIsZero rendering.
func TestLoadWhiteIsZeroKeepsRawSamples(t *testing.T) {
	tests := []struct {
		name string
		bps  int
		pix  []byte
		want []float64
	}{
		{"8bit", 8, []byte{0, 64, 128, 192}, []float64{0, 64, 128, 192}},
		{"16bit", 16, le16(0, 16384, 32768, 49152), []float64{0, 16384, 32768, 49152}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			whiteIsZero, err := Decode(bytes.NewReader(buildTIFFPhotometric(4, 1, tc.bps, 1, 0, tc.pix)))
			require.NoError(t, err)
			blackIsZero, err := Decode(bytes.NewReader(buildTIFF(4, 1, tc.bps, 1, tc.pix)))
			require.NoError(t, err)

			assert.Equal(t, [][]float64{tc.want}, pixels(whiteIsZero))
			assert.Equal(t, pixels(blackIsZero), pixels(whiteIsZero))
		})
	}
}

func TestLoadSinglePixelFixtures(t *testing.T) {
	pix := make([]byte, 25)
	pix[1*5+1] = 1
	filename := writeFile(t, "5by5_one.tif", buildTIFF(5, 5, 8, 1, pix))

	img, err := Load(filename)
	require.NoError(t, err)

	want := [][]float64{
		{0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	}
	if diff := cmp.Diff(want, pixels(img)); diff != "" {
		t.Errorf("5x5 mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEncodedGrayImages(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	g8 := image.NewGray(image.Rect(0, 0, 7, 5))
	rng.Read(g8.Pix)
	g16 := image.NewGray16(image.Rect(0, 0, 6, 3))
	rng.Read(g16.Pix)

	img, err := Load(writeFile(t, "gray8.tif", encodeTIFF(t, g8)))
	require.NoError(t, err)
	assert.Equal(t, Byte, img.Depth)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			require.Equal(t, float64(g8.GrayAt(x, y).Y), img.At(x, y), "pixel (%d,%d)", x, y)
		}
	}

	img, err = Load(writeFile(t, "gray16.tif", encodeTIFF(t, g16)))
	require.NoError(t, err)
	assert.Equal(t, Wide, img.Depth)
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			require.Equal(t, float64(g16.Gray16At(x, y).Y), img.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestLoadRejectsOtherDepths(t *testing.T) {
	for _, bps := range []int{1, 4, 32} {
		t.Run(fmt.Sprintf("%dbit", bps), func(t *testing.T) {
			pix := make([]byte, 4*4*bps/8+1)
			filename := writeFile(t, "odd.tif", buildTIFF(4, 4, bps, 1, pix))

			_, err := Load(filename)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedFormat))

			var ufe *UnsupportedFormatError
			require.True(t, errors.As(err, &ufe))
			assert.Equal(t, bps, ufe.BitsPerSample)
		})
	}
}

func TestLoadRejectsMultiSample(t *testing.T) {
	filename := writeFile(t, "rgb.tif", buildTIFF(2, 2, 8, 3, make([]byte, 12)))

	_, err := Load(filename)
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, 3, ufe.SamplesPerPixel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/channel1.tif")

	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "open", ioe.Op)
	assert.Equal(t, "/nonexistent/channel1.tif", ioe.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadGarbage(t *testing.T) {
	filename := writeFile(t, "garbage.tif", []byte("this is not a tiff file at all"))

	_, err := Load(filename)
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, filename, ioe.Path)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDecodeFromReader(t *testing.T) {
	img, err := Decode(bytes.NewReader(buildTIFF(2, 1, 16, 1, le16(1, 65535))))
	require.NoError(t, err)
	assert.Equal(t, Wide, img.Depth)
	assert.Equal(t, [][]float64{{1, 65535}}, pixels(img))
}

// fakeScanlines serves fixed rows, to reach the decoders directly.
type fakeScanlines struct {
	rows [][]byte
	err  error
}

func (f fakeScanlines) Rows() int         { return len(f.rows) }
func (f fakeScanlines) ScanlineSize() int { return len(f.rows[0]) }
func (f fakeScanlines) ReadScanline(buf []byte, row int) error {
	if f.err != nil {
		return f.err
	}
	copy(buf, f.rows[row])
	return nil
}

func TestDecodeWidePairsLowByteFirst(t *testing.T) {
	img, err := decodeWide(fakeScanlines{rows: [][]byte{{0x01, 0x02, 0xff, 0x00}}})
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width())
	assert.Equal(t, float64(0x0201), img.At(0, 0))
	assert.Equal(t, float64(0x00ff), img.At(1, 0))
}

func TestDecodeWideOddScanline(t *testing.T) {
	_, err := decodeWide(fakeScanlines{rows: [][]byte{{1, 2, 3}}})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDecodeScanlineFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := decodeByte(fakeScanlines{rows: [][]byte{{1}}, err: boom})

	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.True(t, errors.Is(err, boom))
}
