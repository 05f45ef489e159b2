package shift

import (
	"fmt"
	"image"

	"github.com/abworrall/corrshift/pkg/emath"
)

// SampleDepth records how the raw file bytes became intensities.
type SampleDepth int

const (
	Byte SampleDepth = iota + 1 // one byte per sample
	Wide                        // two bytes per sample, little-endian uint16
)

func (d SampleDepth) String() string {
	switch d {
	case Byte:
		return "byte"
	case Wide:
		return "wide"
	default:
		return fmt.Sprintf("SampleDepth(%d)", int(d))
	}
}

// BitsPerSample is the on-disk width of one sample.
func (d SampleDepth) BitsPerSample() int {
	switch d {
	case Byte:
		return 8
	case Wide:
		return 16
	default:
		return 0
	}
}

// An Image is a read-only grid of intensities. Whatever the source
// depth, samples are held as float64.
type Image struct {
	Depth SampleDepth
	grid  emath.FloatGrid
}

// NewImage builds an Image from w*h row-major samples. The values are
// copied.
func NewImage(depth SampleDepth, w, h int, values []float64) (Image, error) {
	g, err := emath.NewFloatGridFrom(w, h, values)
	if err != nil {
		return Image{}, err
	}
	return Image{Depth: depth, grid: g}, nil
}

func (img Image) Width() int              { return img.grid.Dx() }
func (img Image) Height() int             { return img.grid.Dy() }
func (img Image) At(x, y int) float64     { return img.grid.Get(x, y) }
func (img Image) Bounds() image.Rectangle { return img.grid.Bounds() }

func (img Image) appendRegion(dst []float64, r image.Rectangle) []float64 {
	return img.grid.AppendRegion(dst, r)
}

func (img Image) String() string {
	return fmt.Sprintf("Image[%dx%d, %d-bit %s]", img.Width(), img.Height(), img.Depth.BitsPerSample(), img.Depth)
}
